package repository

import (
	"context"
	"fmt"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ThreadRepository struct {
	*base.Repository
}

func NewThreadRepository(pool *pgxpool.Pool) *ThreadRepository {
	return &ThreadRepository{Repository: base.NewRepository(pool)}
}

func (r *ThreadRepository) Create(ctx context.Context, thread *model.MessageThread) error {
	query := `
		INSERT INTO message_threads (booking_id)
		VALUES ($1)
		ON CONFLICT (booking_id) DO UPDATE SET updated_at = now()
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(ctx, query, thread.BookingID).Scan(&thread.ID, &thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}

	return nil
}

func (r *ThreadRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.MessageThread, error) {
	query := `
		SELECT id, booking_id, created_at, updated_at
		FROM message_threads
		WHERE booking_id = $1
	`

	var thread model.MessageThread
	err := r.QueryRow(ctx, query, bookingID).Scan(
		&thread.ID,
		&thread.BookingID,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get thread by booking: %w", err)
	}

	return &thread, nil
}

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{Repository: base.NewRepository(pool)}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	query := `
		INSERT INTO messages (thread_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, message.ThreadID, message.SenderID, message.Content).
		Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

func (r *MessageRepository) ListByThread(ctx context.Context, threadID uuid.UUID) ([]*model.Message, error) {
	query := `
		SELECT id, thread_id, sender_id, content, is_read, read_at, created_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var message model.Message
		err := rows.Scan(
			&message.ID,
			&message.ThreadID,
			&message.SenderID,
			&message.Content,
			&message.IsRead,
			&message.ReadAt,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

// MarkRead flags every message in the thread not sent by the reader.
func (r *MessageRepository) MarkRead(ctx context.Context, threadID, readerID uuid.UUID) error {
	query := `
		UPDATE messages
		SET is_read = TRUE, read_at = now()
		WHERE thread_id = $1 AND sender_id <> $2 AND NOT is_read
	`

	if _, err := r.ExecAffected(ctx, query, threadID, readerID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}

	return nil
}
