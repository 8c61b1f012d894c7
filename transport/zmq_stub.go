// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

//go:build !zmq

package transport

import "errors"

// ErrZMQNotBuilt is returned by NewZMQ when the binary was not built with
// the "zmq" tag (`go build -tags zmq`).
var ErrZMQNotBuilt = errors.New("transport: built without ZMQ support, rebuild with -tags zmq")

// NewZMQ is a stub present when the binary is built without the "zmq" tag;
// it always fails, directing the caller to rebuild with ZMQ support.
func NewZMQ(self, pubEndpoint string, subEndpoints []string) (Transport, error) {
	return nil, ErrZMQNotBuilt
}
