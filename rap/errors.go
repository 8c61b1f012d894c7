// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package rap

import "errors"

var (
	// ErrNoSDOs is returned when a problem instance declares no agents.
	ErrNoSDOs = errors.New("rap: instance declares no sdos")
	// ErrNoNodes is returned when a problem instance declares no nodes.
	ErrNoNodes = errors.New("rap: instance declares no nodes")
	// ErrNoResources is returned when a problem instance declares no resources.
	ErrNoResources = errors.New("rap: instance declares no resources")
	// ErrUnknownFunction is returned when a service lists a function name
	// the instance does not declare.
	ErrUnknownFunction = errors.New("rap: service references unknown function")
	// ErrMissingConsumption is returned when a function's consumption
	// vector omits a declared resource.
	ErrMissingConsumption = errors.New("rap: function consumption missing a declared resource")
	// ErrMissingCapacity is returned when a node's capacity vector omits
	// a declared resource.
	ErrMissingCapacity = errors.New("rap: node capacity missing a declared resource")
	// ErrUnknownNode is returned when an operation references a node id
	// outside the problem instance.
	ErrUnknownNode = errors.New("rap: unknown node")
	// ErrUnknownSDO is returned when an operation references an agent id
	// outside the problem instance.
	ErrUnknownSDO = errors.New("rap: unknown sdo")
	// ErrUnknownService is returned by New when a declared service has no
	// implementing functions listed.
	ErrUnknownService = errors.New("rap: unknown service")
)
