package commands

import (
	"context"
	"log/slog"

	"authkit/application"
	"authkit/application/transactions"
	"authkit/domain/entities"
	"authkit/ports"
)

type RemoveUserInput struct {
	UserID string

	// DeleteUser also removes the host-owned user record, not just the
	// grants held against its subject.
	DeleteUser bool
}

type RemoveUserOutput struct {
	User    entities.User
	Success bool
}

type RemoveUser struct {
	Store       ports.Store
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Events      ports.EventPublisher
	Logger      *slog.Logger
}

func (c RemoveUser) Execute(ctx context.Context, input RemoveUserInput) (RemoveUserOutput, error) {
	logger := application.ResolveLogger(c.Logger)

	var out RemoveUserOutput
	user, subject, err := application.ResolveSubject(ctx, c.Store.Users(), input.UserID)
	if err != nil {
		return out, err
	}

	if err := (transactions.RemoveUser{
		Store:  c.Store,
		Logger: c.Logger,
	}).Execute(ctx, transactions.RemoveUserInput{
		User:       user,
		Subject:    subject,
		DeleteUser: input.DeleteUser,
	}); err != nil {
		return out, err
	}

	publishGrantChange(ctx, logger, c.Events, c.IDGenerator, c.Clock, ports.GrantChangedEvent{
		Type:    ports.EventUserRemoved,
		Subject: subject,
	})

	out = RemoveUserOutput{User: user, Success: true}
	return out, nil
}
