/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package messaging

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/loqalabs/loqa-interviewer/internal/config"
	"github.com/loqalabs/loqa-interviewer/internal/logging"
)

// Publisher is the part of *nats.Conn the publishers use.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSService owns the NATS connection used for interview events
type NATSService struct {
	conn *nats.Conn
	cfg  config.NATSConfig
}

// NewNATSService creates a service for cfg; Connect must be called before use
func NewNATSService(cfg config.NATSConfig) (*NATSService, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}
	return &NATSService{cfg: cfg}, nil
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	logging.LogNATSEvent("", "connecting", zap.String("url", ns.cfg.URL))

	opts := []nats.Option{
		nats.Name("loqa-interviewer"),
		nats.ReconnectWait(ns.cfg.ReconnectWait),
		nats.MaxReconnects(ns.cfg.MaxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.LogWarn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent("", "reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent("", "closed")
		}),
	}

	conn, err := nats.Connect(ns.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	logging.LogNATSEvent("", "connected", zap.String("url", conn.ConnectedUrl()))
	return nil
}

// Events returns an interview event sink publishing on this connection
func (ns *NATSService) Events() *EventPublisher {
	return NewEventPublisher(ns.publisher(), ns.cfg.SubjectPrefix)
}

// Audio returns a publisher for synthesised question audio
func (ns *NATSService) Audio() *AudioPublisher {
	return NewAudioPublisher(ns.publisher(), ns.cfg.SubjectPrefix)
}

// publisher avoids wrapping a nil *nats.Conn in a non-nil interface.
func (ns *NATSService) publisher() Publisher {
	if ns.conn == nil {
		return nil
	}
	return ns.conn
}

// Close flushes pending messages and closes the connection
func (ns *NATSService) Close() {
	if ns.conn == nil {
		return
	}
	stats := ns.GetStats()
	logging.LogNATSEvent("", "closing",
		zap.Uint64("out_msgs", stats.OutMsgs),
		zap.Uint64("out_bytes", stats.OutBytes),
	)
	if err := ns.conn.Drain(); err != nil {
		logging.LogWarn("NATS drain failed", zap.Error(err))
		ns.conn.Close()
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}
