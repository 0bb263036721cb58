package config

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/pkg/errors"
)

// ParameterStore is the subset of the SSM client used to resolve secrets.
type ParameterStore interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewParameterStore builds an SSM client from the default AWS credential chain.
func NewParameterStore(ctx context.Context) (ParameterStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return ssm.NewFromConfig(cfg), nil
}

// NeedsSecrets reports whether the bot token must come from Parameter Store.
func (c *Config) NeedsSecrets() bool {
	return c.Telegram.BotToken == "" && c.Telegram.TokenSSMParam != ""
}

// ResolveSecrets fills the bot token from Parameter Store when it is not set
// directly. A token from file or environment always wins.
func (c *Config) ResolveSecrets(ctx context.Context, store ParameterStore) error {
	if !c.NeedsSecrets() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name := c.Telegram.TokenSSMParam
	decrypt := true
	out, err := store.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return errors.Wrapf(err, "get parameter %s", name)
	}
	if out.Parameter == nil || out.Parameter.Value == nil || *out.Parameter.Value == "" {
		return errors.Errorf("parameter %s is empty", name)
	}
	c.Telegram.BotToken = *out.Parameter.Value
	return nil
}
