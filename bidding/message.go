// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bidding

import (
	"github.com/gabrielecastellano/dragon/codec"
	"github.com/gabrielecastellano/dragon/rap"
)

// wireBid is one cell of the wire-format bidding_data table (§6).
type wireBid struct {
	Bid         int64            `json:"bid"`
	Consumption map[string]int64 `json:"consumption"`
	Timestamp   float64          `json:"timestamp"`
}

// Message is the wire BiddingMessage of §6: sender name, per-node winner
// name lists, the full bidding_data table keyed by name, and a message
// timestamp.
type Message struct {
	Sender      string                        `json:"sender"`
	Winners     map[string][]string           `json:"winners"`
	BiddingData map[string]map[string]wireBid `json:"bidding_data"`
	Timestamp   float64                       `json:"timestamp"`
}

// Encode serializes a Message using the shared wire codec.
func Encode(m Message) ([]byte, error) {
	return codec.Codec.Marshal(codec.CurrentVersion, m)
}

// Decode deserializes a Message using the shared wire codec.
func Decode(data []byte) (Message, error) {
	var m Message
	_, err := codec.Codec.Unmarshal(data, &m)
	return m, err
}

// ToMessage renders this agent's own Data/Winners into the wire Message
// format, resolving dense ids back to names at the edge.
func ToMessage(p *rap.Problem, sender string, data *Data, winners Winners, timestamp float64) Message {
	m := Message{
		Sender:      sender,
		Winners:     make(map[string][]string, p.NumNodes()),
		BiddingData: make(map[string]map[string]wireBid, p.NumNodes()),
		Timestamp:   timestamp,
	}
	for n, nodeName := range p.Nodes {
		var names []string
		for _, a := range winners.Agents(n) {
			names = append(names, p.SDOs[a])
		}
		m.Winners[nodeName] = names

		row := make(map[string]wireBid, p.NumSDOs())
		for a, agentName := range p.SDOs {
			b := data.Get(n, a)
			consumption := make(map[string]int64, len(p.Resources))
			for r, resName := range p.Resources {
				if r < len(b.Consumption) {
					consumption[resName] = b.Consumption[r]
				}
			}
			row[agentName] = wireBid{Bid: b.Value, Consumption: consumption, Timestamp: b.Timestamp}
		}
		m.BiddingData[nodeName] = row
	}
	return m
}

// FromMessage parses a wire Message into dense-id Data and Winners for
// problem p, ignoring any node/agent name the message references that
// does not exist in p.
func FromMessage(p *rap.Problem, m Message) (*Data, Winners) {
	data := NewData(p)
	winners := NewWinners(p.NumNodes(), p.NumSDOs())

	for nodeName, row := range m.BiddingData {
		n, ok := p.NodeID(nodeName)
		if !ok {
			continue
		}
		for agentName, wb := range row {
			a, ok := p.SDOID(agentName)
			if !ok {
				continue
			}
			consumption := make(rap.Vector, p.NumResources())
			for resName, amount := range wb.Consumption {
				if r, ok := p.ResourceID(resName); ok {
					consumption[r] = amount
				}
			}
			data.Set(n, a, Bid{Value: wb.Bid, Consumption: consumption, Timestamp: wb.Timestamp})
		}
	}
	for nodeName, names := range m.Winners {
		n, ok := p.NodeID(nodeName)
		if !ok {
			continue
		}
		for _, agentName := range names {
			if a, ok := p.SDOID(agentName); ok {
				winners.Set(n, a, true)
			}
		}
	}
	return data, winners
}
