// Command dsnpresolve resolves a single DSNP user and prints the document as JSON.
//
//	dsnpresolve [--config path] <userId | did:dsnp:userId>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ardanlabs/conf"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/config"
	"github.com/dsnp/frequency-resolver/pkg/resolver"
)

const namespace = "DSNP_RESOLVE"

type cliConfig struct {
	conf.Version
	Config string `conf:"default:config/config.toml,help:path to the resolver config file"`
	Args   conf.Args
}

func main() {
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		logrus.WithError(err).Error("dsnpresolve failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cli := cliConfig{Version: conf.Version{SVN: config.ServiceVersion, Desc: "Resolve a DSNP user from Frequency"}}
	if err := conf.Parse(args, namespace, &cli); err != nil {
		switch {
		case errors.Is(err, conf.ErrHelpWanted):
			usage, err := conf.Usage(namespace, &cli)
			if err != nil {
				return errors.Wrap(err, "generating usage")
			}
			fmt.Fprintln(out, usage)
			return nil
		case errors.Is(err, conf.ErrVersionWanted):
			version, err := conf.VersionString(namespace, &cli)
			if err != nil {
				return errors.Wrap(err, "generating version")
			}
			fmt.Fprintln(out, version)
			return nil
		}
		return errors.Wrap(err, "parsing arguments")
	}

	target := cli.Args.Num(0)
	if target == "" {
		return errors.New("usage: dsnpresolve [--config path] <userId | did:dsnp:userId>")
	}
	userID, err := parseTarget(target)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfigWithArgs(cli.Config, nil)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	opts, err := cfg.Frequency.ResolverOptions()
	if err != nil {
		return err
	}
	r, err := resolver.New(*opts)
	if err != nil {
		return errors.Wrap(err, "creating resolver")
	}
	defer func() {
		if err := r.Disconnect(); err != nil {
			logrus.WithError(err).Warn("disconnecting from chain")
		}
	}()

	if cfg.Frequency.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Frequency.CallTimeout)
		defer cancel()
	}

	doc, err := r.Resolve(ctx, userID)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", resolver.DID(userID))
	}

	// a nil document prints as null
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

// parseTarget accepts a bare user id or a did:dsnp identifier.
func parseTarget(target string) (uint64, error) {
	if strings.HasPrefix(target, "did:") {
		return resolver.ParseDID(target)
	}
	userID, err := strconv.ParseUint(target, 10, 64)
	if err != nil {
		return 0, errors.Errorf("user id<%s> must be a base 10 unsigned 64-bit integer", target)
	}
	return userID, nil
}
