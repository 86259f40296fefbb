package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ripeness-detector/internal/domain/entity"
	"ripeness-detector/internal/infrastructure/storage"
)

func TestSessionService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	session, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, session.State)

	session, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)
}

func TestSessionService_StartProcessingIsExclusive(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	session, err := svc.StartProcessing(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, session.State)

	_, err = svc.StartProcessing(ctx, 2, 20)
	require.ErrorIs(t, err, ErrSessionBusy)

	// Another user is unaffected.
	_, err = svc.StartProcessing(ctx, 3, 30)
	require.NoError(t, err)

	require.NoError(t, svc.Finish(ctx, 2))
	session, err = svc.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)

	_, err = svc.StartProcessing(ctx, 2, 20)
	require.NoError(t, err)
}

func TestSessionService_DialogCommandsKeepProcessing(t *testing.T) {
	svc := NewSessionService(storage.NewMemorySessionRepository())
	ctx := context.Background()

	_, err := svc.StartProcessing(ctx, 4, 40)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, 4, 40)
	require.ErrorIs(t, err, ErrSessionBusy)
	_, err = svc.BeginCheck(ctx, 4, 40)
	require.ErrorIs(t, err, ErrSessionBusy)

	session, err := svc.Get(ctx, 4, 40)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, session.State)

	_, err = svc.StartProcessing(ctx, 4, 40)
	require.ErrorIs(t, err, ErrSessionBusy)

	require.NoError(t, svc.Finish(ctx, 4))
	session, err = svc.Cancel(ctx, 4, 40)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)
}
