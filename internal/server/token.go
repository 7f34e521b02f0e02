package server

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/vibedtracker/internal/flagx"
	"github.com/dmitrijs2005/vibedtracker/internal/server/auth"
	"github.com/dmitrijs2005/vibedtracker/internal/server/config"
)

// TokenCommand is the sub-command name that mints a bearer token instead of
// starting the server.
const TokenCommand = "token"

// MintToken handles "token -u <account>": it signs a token for the account
// with the configured secret and validity and writes it to w.
func MintToken(cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet(TokenCommand, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.String("u", "", "account id to mint the token for")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-u"})); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("token: -u <account> is required")
	}

	tok, err := auth.GenerateToken(*user, []byte(cfg.SecretKey), cfg.TokenValidityDuration)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	_, err = fmt.Fprintln(w, tok)
	return err
}
