package session

import (
	"context"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
	"github.com/teamspeak-mcp/tsmcp/pkg/logger"
	"github.com/teamspeak-mcp/tsmcp/pkg/query"
)

// AuthOutcome is the tagged result of one authentication strategy.
type AuthOutcome int

const (
	// AuthSuccess means the session is authenticated; the chain stops.
	AuthSuccess AuthOutcome = iota

	// AuthSoftFail means the strategy did not apply or was rejected by
	// the server; the chain continues with the next strategy.
	AuthSoftFail

	// AuthHardFail means the transport failed during the exchange; the
	// whole connection attempt is aborted.
	AuthHardFail
)

// AuthStrategy is one step of the authentication chain.
type AuthStrategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Authenticate runs the strategy's exchange on the given handle.
	Authenticate(ctx context.Context, conn *query.Conn, cfg config.SessionConfig) (AuthOutcome, error)
}

// AuthNegotiator runs an ordered chain of strategies against a freshly
// opened transport, short-circuiting on the first success. Rejections are
// logged and tolerated: a reduced-privilege session is preferable to
// refusing to connect.
type AuthNegotiator struct {
	strategies []AuthStrategy
}

// NewAuthNegotiator builds the default chain: username+password login,
// then the secret as a one-time privilege token, then anonymous.
func NewAuthNegotiator() *AuthNegotiator {
	return &AuthNegotiator{
		strategies: []AuthStrategy{
			credentialsStrategy{},
			privilegeTokenStrategy{},
			anonymousStrategy{},
		},
	}
}

// Negotiate runs the chain. It returns the name of the winning strategy, or
// an error only when a strategy reported a transport-level failure.
func (n *AuthNegotiator) Negotiate(ctx context.Context, conn *query.Conn, cfg config.SessionConfig) (string, error) {
	for _, strategy := range n.strategies {
		outcome, err := strategy.Authenticate(ctx, conn, cfg)
		switch outcome {
		case AuthSuccess:
			return strategy.Name(), nil
		case AuthSoftFail:
			if err != nil {
				logger.Warnw("authentication strategy failed, trying next",
					"strategy", strategy.Name(), "error", err)
			}
		case AuthHardFail:
			return "", newTransportError(strategy.Name(), cfg.Addr(), err)
		}
	}

	// Unreachable with the default chain: anonymous always succeeds.
	return "anonymous", nil
}

// classify maps an exchange error to an outcome: server rejections are soft,
// transport failures are hard.
func classify(err error) (AuthOutcome, error) {
	if err == nil {
		return AuthSuccess, nil
	}
	if isServerRejection(err) {
		return AuthSoftFail, err
	}
	return AuthHardFail, err
}

// credentialsStrategy performs the classic ServerQuery login.
type credentialsStrategy struct{}

func (credentialsStrategy) Name() string { return "credentials" }

func (credentialsStrategy) Authenticate(ctx context.Context, conn *query.Conn, cfg config.SessionConfig) (AuthOutcome, error) {
	if cfg.Secret == "" {
		return AuthSoftFail, nil
	}

	cmd := query.NewCommand("login").
		Param("client_login_name", cfg.Username).
		Param("client_login_password", cfg.Secret)
	_, err := conn.Exec(ctx, cmd)
	return classify(err)
}

// privilegeTokenStrategy redeems the secret as a one-time privilege key.
type privilegeTokenStrategy struct{}

func (privilegeTokenStrategy) Name() string { return "privilege-token" }

func (privilegeTokenStrategy) Authenticate(ctx context.Context, conn *query.Conn, cfg config.SessionConfig) (AuthOutcome, error) {
	if cfg.Secret == "" {
		return AuthSoftFail, nil
	}

	_, err := conn.Exec(ctx, query.NewCommand("tokenuse").Param("token", cfg.Secret))
	return classify(err)
}

// anonymousStrategy accepts the unauthenticated session as-is.
type anonymousStrategy struct{}

func (anonymousStrategy) Name() string { return "anonymous" }

func (anonymousStrategy) Authenticate(context.Context, *query.Conn, config.SessionConfig) (AuthOutcome, error) {
	return AuthSuccess, nil
}
