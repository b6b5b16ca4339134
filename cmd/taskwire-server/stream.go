// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/taskwire/taskwire/lib/hub"
	"github.com/taskwire/taskwire/lib/service"
)

// handleStream runs one authenticated realtime session: register a
// hub conn under the session's owner and forward its change events
// until the session or the conn ends.
func (s *taskServer) handleStream(ctx context.Context, session *service.StreamSession) {
	conn := hub.NewConn(session.Owner(), s.streamBuffer)
	s.hub.Register(conn)
	defer s.hub.Unregister(conn)

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			// Torn down by the hub, typically for falling behind.
			return
		case event := <-conn.Events():
			if err := session.Send(event); err != nil {
				s.logger.Warn("stream send failed",
					"owner", session.Owner(),
					"error", err,
				)
				return
			}
		}
	}
}
