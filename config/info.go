package config

import (
	"strings"
	"sync"
)

const (
	ServiceName    = "dsnp-resolver"
	ServiceVersion = "0.1.0"
	APIVersion     = "v1"
)

var (
	si   *serviceInfo
	once sync.Once
)

// getServiceInfo provides serviceInfo as a singleton
func getServiceInfo() *serviceInfo {
	once.Do(func() {
		si = &serviceInfo{
			name: ServiceName,
			description: "The DSNP Resolver resolves did:dsnp identifiers into DID documents from Frequency chain state," +
				" and other DID methods through the SSI SDK.",
			version:    ServiceVersion,
			apiVersion: APIVersion,
		}
	})

	return si
}

// serviceInfo is intended to be a (mostly) read-only singleton object for static service info
type serviceInfo struct {
	name        string
	description string
	version     string
	apiBase     string
	apiVersion  string
}

func Name() string {
	return getServiceInfo().name
}

func Description() string {
	return getServiceInfo().description
}

func Version() string {
	return getServiceInfo().version
}

func SetAPIBase(url string) {
	getServiceInfo().apiBase = strings.TrimSuffix(url, "/")
}

func GetAPIBase() string {
	return getServiceInfo().apiBase
}

// GetServicePath joins a path to the versioned API base.
func GetServicePath(path string) string {
	return strings.Join([]string{getServiceInfo().apiBase, APIVersion, strings.TrimPrefix(path, "/")}, "/")
}
