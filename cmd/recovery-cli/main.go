// Command recovery-cli builds a recovery parameter set from the command line.
// It drives the same resolver library the embedded-wallet client uses, which
// makes it handy for exercising a session endpoint during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/openfort-xyz/recoverykit/recovery"
)

func main() {
	var (
		method    = flag.String("method", "automatic", "recovery method: automatic, password, or passkey")
		passkeyID = flag.String("passkey-id", "", "existing passkey credential id (passkey method)")
		endpoint  = flag.String("endpoint", "", "encryption session endpoint (automatic method)")
		userID    = flag.String("user", "", "user id forwarded to the session endpoint")
		otpCode   = flag.String("otp", "", "TOTP code forwarded to the session endpoint")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	flag.Parse()

	req := recovery.Request{
		RecoveryMethod: recovery.Method(*method),
		PasskeyID:      *passkeyID,
		OTPCode:        *otpCode,
		UserID:         *userID,
	}

	if req.RecoveryMethod == recovery.MethodPassword {
		password, err := readPassword()
		if err != nil {
			fatalf("failed to read password: %v", err)
		}
		req.RecoveryPassword = password

		strength := recovery.ScorePassword(password, []string{*userID})
		if !strength.Acceptable() {
			fmt.Fprintf(os.Stderr, "warning: weak recovery password (score %d/4)\n", strength.Score)
			for _, w := range strength.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
		}
	}

	resolver, err := recovery.New(recovery.Config{
		CreateEncryptedSessionEndpoint: *endpoint,
	})
	if err != nil {
		fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	params, err := resolver.Resolve(ctx, req)
	if err != nil {
		fatalf("recovery resolution failed: %v", err)
	}

	out, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		fatalf("failed to encode parameters: %v", err)
	}
	fmt.Println(string(out))
}

// readPassword prompts on stderr and reads without echo when stdin is a
// terminal, falling back to a plain line read for piped input.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Recovery password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
