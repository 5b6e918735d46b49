// Package resolver resolves did:dsnp identifiers into DID documents from Frequency chain state.
package resolver

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dsnp/frequency-resolver/internal/scale"
	"github.com/dsnp/frequency-resolver/internal/storagekey"
	"github.com/dsnp/frequency-resolver/pkg/chain"
	"github.com/dsnp/frequency-resolver/pkg/multikey"
	"github.com/dsnp/frequency-resolver/pkg/schema"
	svcframework "github.com/dsnp/frequency-resolver/pkg/service/framework"
)

const tracerName = "github.com/dsnp/frequency-resolver/pkg/resolver"

// Options configures a Resolver. Exactly one of ProviderURI or Client must be set.
type Options struct {
	// ProviderURI is the ws, wss, http or https address of a Frequency node.
	ProviderURI string
	// Client is an already open node connection. The Resolver takes ownership of it.
	Client chain.Client
	// Dial overrides how ProviderURI is opened.
	Dial chain.Dialer
	// Network is one of local, testnet or mainnet.
	Network string
	// SchemaStrategy is dynamic (default), static or fallback.
	SchemaStrategy string
	// StaticSchemas replaces the built in table used by the static and fallback strategies.
	StaticSchemas *schema.StaticTable
	// SchemaResolver replaces the strategy entirely.
	SchemaResolver schema.Resolver
	// UserIDByteOrder is the encoding of user ids inside storage keys. Defaults to big-endian.
	UserIDByteOrder binary.ByteOrder
}

type schemaPurpose struct {
	purpose schema.Purpose
	version string
}

var documentSchemas = []schemaPurpose{
	{purpose: schema.AssertionMethod, version: schema.AssertionMethodVersion},
	{purpose: schema.KeyAgreement, version: schema.KeyAgreementVersion},
}

type schemaID struct {
	id      schema.ID
	present bool
}

// Resolver resolves DSNP users on one Frequency chain. It is safe for concurrent use.
type Resolver struct {
	manager     *chain.Manager
	network     schema.Network
	schemas     schema.Resolver
	keyCount    storagekey.Map
	displayName storagekey.Map

	mu sync.Mutex
	// schema ids per genesis hash; a purpose whose lookup failed is left out so it is retried
	schemaIDs map[string]map[schema.Purpose]schemaID
}

var _ svcframework.Service = (*Resolver)(nil)

// New validates opts and builds a Resolver. No connection is made until the first call.
func New(opts Options) (*Resolver, error) {
	if opts.ProviderURI == "" && opts.Client == nil {
		return nil, &ConfigError{Field: "provider", Reason: "a provider uri or client is required"}
	}
	if opts.ProviderURI != "" && opts.Client != nil {
		return nil, &ConfigError{Field: "provider", Reason: "set either a provider uri or a client, not both"}
	}
	network, err := schema.ParseNetwork(opts.Network)
	if err != nil {
		return nil, &ConfigError{Field: "network", Reason: err.Error()}
	}

	schemas := opts.SchemaResolver
	if schemas == nil {
		strategy, err := schema.ParseStrategy(opts.SchemaStrategy)
		if err != nil {
			return nil, &ConfigError{Field: "schema_strategy", Reason: err.Error()}
		}
		table := schema.DefaultStaticTable
		if opts.StaticSchemas != nil {
			table = *opts.StaticSchemas
		}
		if schemas, err = schema.NewResolver(strategy, network, table); err != nil {
			return nil, &ConfigError{Field: "schema_strategy", Reason: err.Error()}
		}
	}

	order := opts.UserIDByteOrder
	if order == nil {
		order = binary.BigEndian
	}

	var manager *chain.Manager
	if opts.Client != nil {
		manager = chain.NewManagerWithClient(opts.Client)
	} else {
		manager = chain.NewManager(opts.ProviderURI, opts.Dial)
	}

	return &Resolver{
		manager:     manager,
		network:     network,
		schemas:     schemas,
		keyCount:    storagekey.PublicKeyCount.WithByteOrder(order),
		displayName: storagekey.DisplayName.WithByteOrder(order),
		schemaIDs:   make(map[string]map[schema.Purpose]schemaID),
	}, nil
}

// Network is the configured network name.
func (r *Resolver) Network() schema.Network {
	return r.network
}

// Resolve builds the DID document of a user. A user without registered keys yields a nil
// document and a nil error.
func (r *Resolver) Resolve(ctx context.Context, userID uint64) (*Document, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("dsnp.user_id", DID(userID))))
	defer span.End()

	doc, err := r.resolve(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("dsnp.found", doc != nil))
	return doc, nil
}

// ResolveDID is Resolve for a did:dsnp identifier.
func (r *Resolver) ResolveDID(ctx context.Context, did string) (*Document, error) {
	userID, err := ParseDID(did)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, userID)
}

func (r *Resolver) resolve(ctx context.Context, userID uint64) (*Document, error) {
	conn, err := r.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	schemaIDs := r.resolveSchemaIDs(ctx, conn)

	count, err := conn.GetStorage(ctx, r.keyCount.Key(userID))
	if err != nil {
		return nil, errors.Wrapf(err, "reading key count of user<%d>", userID)
	}
	if count == nil {
		return nil, nil
	}
	n, err := scale.DecodeUint(count)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding key count of user<%d>", userID)
	}
	if n == 0 {
		return nil, nil
	}

	controller := DID(userID)
	doc := newDocument(controller)

	keys, err := conn.GetKeysByMsaID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		encoded, err := multikey.EncodeAccountKey(key)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding control key of user<%d>", userID)
		}
		doc.Authentication = append(doc.Authentication, newVerificationMethod(controller, encoded))
	}

	handle, err := conn.GetStorage(ctx, r.displayName.Key(userID))
	if err != nil {
		return nil, errors.Wrapf(err, "reading handle of user<%d>", userID)
	}
	if handle != nil {
		name, err := scale.DecodeDisplayName(handle)
		if err != nil {
			logrus.WithError(err).WithField("user", userID).Warn("skipping undecodable handle")
		} else {
			doc.AlsoKnownAs = append(doc.AlsoKnownAs, HandleAliasPrefix+name)
		}
	}

	for _, s := range documentSchemas {
		sid := schemaIDs[s.purpose]
		if !sid.present {
			continue
		}
		methods, err := r.itemizedKeys(ctx, conn, controller, userID, sid.id)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s keys", s.purpose)
		}
		switch s.purpose {
		case schema.AssertionMethod:
			doc.AssertionMethod = methods
		case schema.KeyAgreement:
			doc.KeyAgreement = methods
		}
	}
	return doc, nil
}

func (r *Resolver) itemizedKeys(ctx context.Context, conn *chain.Connection, controller string, userID uint64, id schema.ID) ([]VerificationMethod, error) {
	items, err := conn.GetItemizedStorage(ctx, userID, uint16(id))
	if err != nil {
		return nil, err
	}
	methods := make([]VerificationMethod, 0, len(items))
	for _, item := range items {
		encoded, err := multikey.DecodeItemizedPayload(item.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d of schema<%d>", item.Index, id)
		}
		methods = append(methods, newVerificationMethod(controller, encoded))
	}
	return methods, nil
}

// resolveSchemaIDs returns the schema ids for the connected chain, looking up whatever is
// not yet known. A failed lookup counts as absent for this call only.
func (r *Resolver) resolveSchemaIDs(ctx context.Context, conn *chain.Connection) map[schema.Purpose]schemaID {
	r.mu.Lock()
	defer r.mu.Unlock()

	genesis := conn.GenesisHash()
	known, ok := r.schemaIDs[genesis]
	if !ok {
		known = make(map[schema.Purpose]schemaID, len(documentSchemas))
		r.schemaIDs[genesis] = known
	}

	result := make(map[schema.Purpose]schemaID, len(documentSchemas))
	for _, s := range documentSchemas {
		if sid, ok := known[s.purpose]; ok {
			result[s.purpose] = sid
			continue
		}
		id, present, err := r.schemas.ResolveSchemaID(ctx, conn, s.purpose, s.version)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"schema":  s.purpose.Name(),
				"genesis": genesis,
			}).Warn("schema id unavailable")
			result[s.purpose] = schemaID{}
			continue
		}
		known[s.purpose] = schemaID{id: id, present: present}
		result[s.purpose] = known[s.purpose]
	}
	return result
}

// Disconnect releases the node connection. It is a no-op when not connected; the next
// Resolve reconnects.
func (r *Resolver) Disconnect() error {
	return r.manager.Disconnect()
}

func (r *Resolver) Type() svcframework.Type {
	return svcframework.DSNP
}

// Status reports ready when a connection to the node can be acquired.
func (r *Resolver) Status(ctx context.Context) svcframework.Status {
	if _, err := r.manager.Acquire(ctx); err != nil {
		return svcframework.Status{Status: svcframework.StatusNotReady, Message: err.Error()}
	}
	return svcframework.Status{Status: svcframework.StatusReady}
}
