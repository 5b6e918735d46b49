package chain

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/dsnp/frequency-resolver/pkg/chain"

func (c *Connection) call(ctx context.Context, result any, method string, params ...any) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method)
	defer span.End()
	span.SetAttributes(attribute.String("rpc.method", method))

	if err := c.client.Call(ctx, result, method, params...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if IsTransportFailure(err) && c.onFailure != nil {
			c.onFailure(c)
		}
		return err
	}
	return nil
}

// GetStorage reads a raw storage value. A missing key returns nil without an error.
func (c *Connection) GetStorage(ctx context.Context, key []byte) ([]byte, error) {
	var value *Bytes
	if err := c.call(ctx, &value, "state_getStorage", EncodeHex(key)); err != nil {
		return nil, errors.Wrap(err, "reading storage")
	}
	if value == nil {
		return nil, nil
	}
	return *value, nil
}

// GetKeysByMsaID returns the control keys of an MSA in chain order. An unknown MSA
// returns no keys.
func (c *Connection) GetKeysByMsaID(ctx context.Context, msaID uint64) ([][]byte, error) {
	var info *KeyInfoResponse
	if err := c.call(ctx, &info, "msa_getKeysByMsaId", msaID); err != nil {
		return nil, errors.Wrapf(err, "getting keys for msa<%d>", msaID)
	}
	if info == nil {
		return nil, nil
	}
	keys := make([][]byte, 0, len(info.MsaKeys))
	for _, key := range info.MsaKeys {
		keys = append(keys, key)
	}
	return keys, nil
}

// GetItemizedStorage returns every item stored for an MSA under a schema.
func (c *Connection) GetItemizedStorage(ctx context.Context, msaID uint64, schemaID uint16) ([]ItemizedStorageResponse, error) {
	var page *ItemizedStoragePageResponse
	if err := c.call(ctx, &page, "statefulStorage_getItemizedStorage", msaID, schemaID); err != nil {
		return nil, errors.Wrapf(err, "getting itemized storage for msa<%d> schema<%d>", msaID, schemaID)
	}
	if page == nil {
		return nil, nil
	}
	return page.Items, nil
}

// GetSchemaVersions lists every registered version of a named schema.
func (c *Connection) GetSchemaVersions(ctx context.Context, name string) ([]SchemaVersionResponse, error) {
	var versions *[]SchemaVersionResponse
	if err := c.call(ctx, &versions, "schemas_getVersions", name); err != nil {
		return nil, errors.Wrapf(err, "getting versions of schema<%s>", name)
	}
	if versions == nil {
		return nil, nil
	}
	return *versions, nil
}
