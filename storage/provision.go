package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"
)

const queueAlreadyExists = "QueueAlreadyExists"

type tableCreator interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
}

type queueCreator interface {
	Create(ctx context.Context, options *azqueue.CreateOptions) (azqueue.CreateResponse, error)
}

// Provision creates the given tables and queues. Existing ones are left
// untouched and empty names are skipped.
func Provision(ctx context.Context, connStr string, tables, queues []string, logger *log.Logger) error {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return err
	}
	for _, name := range tables {
		if name == "" {
			continue
		}
		created, err := ensureTable(ctx, svc.NewClient(name))
		if err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
		logger.WithFields(log.Fields{"table": name, "created": created}).Info("table ready")
	}
	for _, name := range queues {
		if name == "" {
			continue
		}
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
		if err != nil {
			return err
		}
		created, err := ensureQueue(ctx, q)
		if err != nil {
			return fmt.Errorf("queue %s: %w", name, err)
		}
		logger.WithFields(log.Fields{"queue": name, "created": created}).Info("queue ready")
	}
	return nil
}

func ensureTable(ctx context.Context, c tableCreator) (bool, error) {
	if _, err := c.CreateTable(ctx, nil); err != nil {
		if hasErrorCode(err, string(aztables.TableAlreadyExists)) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func ensureQueue(ctx context.Context, q queueCreator) (bool, error) {
	if _, err := q.Create(ctx, nil); err != nil {
		if hasErrorCode(err, queueAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func hasErrorCode(err error, code string) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == code
}
