//go:build integration

// Package integration exercises a running resolver, started with `mage run` against a Frequency
// node, over its HTTP API.
package integration

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/oliveagle/jsonpath"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/internal/util"
)

const (
	defaultEndpoint = "http://localhost:3000/"
	MaxElapsedTime  = 120 * time.Second

	// EndpointEnv overrides the resolver base url
	EndpointEnv = "RESOLVER_ENDPOINT"
	// UserIDEnv names a user id registered on the chain the resolver reads
	UserIDEnv = "DSNP_TEST_USER_ID"
)

var client = &http.Client{Timeout: 90 * time.Second}

func init() {
	// Treats "\n" as new lines, see https://github.com/sirupsen/logrus/issues/608
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableQuote: true,
		ForceColors:  true,
	})
}

func endpoint() string {
	if e, ok := os.LookupEnv(EndpointEnv); ok && e != "" {
		return e
	}
	return defaultEndpoint
}

// waitUntilReady polls /readiness until the resolver reports a live chain connection.
func waitUntilReady() error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = MaxElapsedTime

	err := backoff.Retry(func() error {
		status, body, err := get(endpoint() + "readiness")
		if err != nil {
			logrus.WithError(err).Debug("retryable error caught, retrying..")
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("resolver not ready: %s", body)
		}
		return nil
	}, expBackoff)
	if err != nil {
		return errors.Wrap(err, "error after retrying")
	}
	return nil
}

func resolveDSNP(did string) (int, string, error) {
	return get(endpoint() + "1.0/identifiers/" + did)
}

func resolveAny(did string) (int, string, error) {
	return get(endpoint() + "v1/dids/resolver/" + did)
}

func getJSONElement(jsonString string, jsonPath string) (any, error) {
	jsonMap := make(map[string]any)
	if err := json.Unmarshal([]byte(jsonString), &jsonMap); err != nil {
		return nil, errors.Wrap(err, "problem with unmarshalling json string")
	}

	element, err := jsonpath.JsonPathLookup(jsonMap, jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "problem with finding element in json string")
	}
	return element, nil
}

// get returns the status and body of a GET. Non 2xx statuses are not errors.
func get(url string) (int, string, error) {
	logrus.Printf("\nPerforming GET request to:  %s\n", url)

	resp, err := client.Get(url) // #nosec: testing only.
	if err != nil {
		return 0, "", errors.Wrapf(err, "getting url: %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", errors.Wrap(err, "parsing body")
	}
	if !util.Is2xxResponse(resp.StatusCode) {
		logrus.Infof("Received status %d:  %s", resp.StatusCode, string(body))
		return resp.StatusCode, string(body), nil
	}

	logrus.Infof("Received:  %s", string(body))
	return resp.StatusCode, string(body), nil
}
