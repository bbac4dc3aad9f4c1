package node

import (
	"context"
	"fmt"

	"github.com/aerocluster/asadm/pkg/codec"
)

// GetConfig returns the config for one stanza ("service", "network",
// "xdr", "namespace", ...). For stanza="namespace" with an empty
// namespace, every namespace is fetched and indexed by its position in
// Namespaces() (nsid), mirroring spec.md §4.3.
func (n *Node) GetConfig(ctx context.Context, stanza, namespace string) (map[string]map[string]string, error) {
	switch {
	case stanza == "":
		reply, err := n.call(ctx, "get-config:")
		if err != nil {
			return nil, err
		}
		return map[string]map[string]string{"service": codec.ToDict(reply).ToMap()}, nil

	case stanza == "namespace" && namespace != "":
		cfg, err := n.namespaceConfig(ctx, namespace, "")
		if err != nil {
			return nil, err
		}
		return map[string]map[string]string{namespace: cfg}, nil

	case stanza == "namespace":
		namespaces, err := n.Namespaces(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]map[string]string, len(namespaces))
		for idx, ns := range namespaces {
			cfg, err := n.namespaceConfig(ctx, ns, fmt.Sprintf("%d", idx))
			if err != nil {
				out[ns] = map[string]string{}
				continue
			}
			out[ns] = cfg
		}
		return out, nil

	default:
		reply, err := n.call(ctx, fmt.Sprintf("get-config:context=%s", stanza))
		if err != nil {
			return nil, err
		}
		return map[string]map[string]string{stanza: codec.ToDict(reply).ToMap()}, nil
	}
}

// ServiceConfig returns the node's service-level config.
func (n *Node) ServiceConfig(ctx context.Context) (map[string]string, error) {
	cfg, err := n.GetConfig(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return cfg["service"], nil
}

// NetworkConfig returns the node's network-stanza config.
func (n *Node) NetworkConfig(ctx context.Context) (map[string]string, error) {
	cfg, err := n.GetConfig(ctx, "network", "")
	if err != nil {
		return nil, err
	}
	return cfg["network"], nil
}

// XDRConfig returns XDR config, issued over the main info port when the
// xdr feature is present, falling back to the dedicated XDR port otherwise
// (legacy servers, pre-3.8), mirroring XDRStatistics's feature dance.
func (n *Node) XDRConfig(ctx context.Context) (map[string]string, error) {
	feats, err := n.Features(ctx)
	if err == nil && feats["xdr"] {
		reply, err := n.call(ctx, "get-config:context=xdr")
		if err != nil {
			return nil, err
		}
		return codec.ToDict(reply).ToMap(), nil
	}
	reply, err := n.xdrCall(ctx, "get-config")
	if err != nil {
		return nil, err
	}
	return codec.ToDict(reply).ToMap(), nil
}

// DCConfig returns config for every datacenter this node replicates to,
// keyed by dc name, issued over the main info port when the xdr feature is
// present and falling back to the dedicated XDR port otherwise (legacy
// servers, pre-3.8).
func (n *Node) DCConfig(ctx context.Context) (map[string]map[string]string, error) {
	feats, err := n.Features(ctx)
	var reply string
	if err == nil && feats["xdr"] {
		reply, err = n.call(ctx, "get-dc-config")
		if err != nil {
			return nil, err
		}
	} else {
		reply, err = n.xdrCall(ctx, "get-dc-config")
		if err != nil {
			return nil, err
		}
	}
	m := codec.ToDictMultiLevel(reply, "dc-name")
	out := make(map[string]map[string]string, m.Len())
	for _, k := range m.Keys() {
		fields, _ := m.Get(k)
		out[k] = fields.ToMap()
	}
	return out, nil
}

func (n *Node) namespaceConfig(ctx context.Context, namespace, nsid string) (map[string]string, error) {
	reply, err := n.call(ctx, fmt.Sprintf("get-config:context=namespace;id=%s", namespace))
	if err != nil {
		return nil, err
	}
	cfg := codec.ToDict(reply).ToMap()
	if nsid != "" {
		cfg["nsid"] = nsid
	}
	return cfg, nil
}
