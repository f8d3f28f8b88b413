//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package app

import (
	"context"
	"encoding/json"

	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

// AuditRecord is one executed sensitive call.
type AuditRecord struct {
	CallID string
	Tool   string
	UserID string
	Err    error
}

// auditCallbacks logs every sensitive call once it ran. Sensitive calls only
// reach a tools node after the user approved them.
func auditCallbacks(reg *tool.Registry, sink func(AuditRecord)) *tool.Callbacks {
	return tool.NewCallbacks().RegisterAfterTool(
		func(_ context.Context, inv *tool.Invocation, _ any, runErr error) (any, error) {
			if !reg.IsSensitive(inv.Name) {
				return nil, nil
			}
			var who struct {
				UserID string `json:"user_id"`
			}
			_ = json.Unmarshal(inv.Args, &who)
			rec := AuditRecord{CallID: inv.CallID, Tool: inv.Name, UserID: who.UserID, Err: runErr}
			if runErr != nil {
				log.Warnf("audit: %s call %s for user %q failed: %v", rec.Tool, rec.CallID, rec.UserID, runErr)
			} else {
				log.Infof("audit: %s call %s for user %q executed", rec.Tool, rec.CallID, rec.UserID)
			}
			if sink != nil {
				sink(rec)
			}
			return nil, nil
		})
}
