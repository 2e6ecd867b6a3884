// Command ops-token mints an operator token for local runs, where the
// hosted auth provider is not available, and optionally calls the gateway
// with it.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/practiceops/practiceops/libs/auth"
	"github.com/practiceops/practiceops/libs/config"
)

func main() {
	config.LoadDotEnv()
	var (
		secret   = flag.String("secret", config.String("AUTH_JWT_SECRET", ""), "HS256 secret shared with the gateway")
		audience = flag.String("audience", config.String("AUTH_JWT_AUDIENCE", ""), "aud claim")
		subject  = flag.String("sub", uuid.NewString(), "operator subject")
		email    = flag.String("email", "ops@practiceops.local", "operator email")
		role     = flag.String("role", "admin", "operator role")
		ttl      = flag.Duration("ttl", 12*time.Hour, "token lifetime")
		baseURL  = flag.String("base-url", config.String("BASE_URL", "http://localhost:8080"), "gateway base url")
		call     = flag.String("call", "", "optional GET path to request with the token, e.g. /api/v1/ops/appointments")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fatal("AUTH_JWT_SECRET is required")
	}

	now := time.Now()
	claims := auth.Claims{
		Email:       *email,
		AppMetadata: auth.AppMetadata{Role: *role},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}
	if *audience != "" {
		claims.Audience = jwt.ClaimStrings{*audience}
	}
	token, err := auth.Sign(claims, *secret)
	if err != nil {
		fatal(err.Error())
	}

	if *call == "" {
		fmt.Println(token)
		return
	}

	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(*baseURL, "/")+*call, nil)
	if err != nil {
		fatal(err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()

	fmt.Printf("status=%d\n", resp.StatusCode)
	_, _ = io.Copy(os.Stdout, resp.Body)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
