package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/store"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// writeGroup is the operations of one batch aimed at one collection.
type writeGroup struct {
	collection string
	ops        []task.DBOperation
}

// groupByCollection keeps the order in which collections first appear and
// the order of operations inside each collection.
func groupByCollection(ops []task.DBOperation) []writeGroup {
	index := make(map[string]int)
	var groups []writeGroup
	for _, op := range ops {
		i, ok := index[op.Collection]
		if !ok {
			i = len(groups)
			index[op.Collection] = i
			groups = append(groups, writeGroup{collection: op.Collection})
		}
		groups[i].ops = append(groups[i].ops, op)
	}
	return groups
}

// writeSavepoint isolates each operation of a group.
const writeSavepoint = "write_op"

// DBHandler consumes db tasks. Operations are grouped by collection and
// each group is written in one transaction, with every operation under its
// own savepoint. Documents whose dedup key is already stored are skipped. An
// operation the store rejects is undone alone and reported while the rest
// of its group commits. Only a failure of the transaction itself rolls a
// group back, without affecting the others.
func (p *Pipeline) DBHandler() task.Handler {
	return task.HandlerFunc(func(ctx context.Context, tasks []*task.Task) error {
		log := logger.FromContextOrDefault(ctx, p.logger)

		var errs []error
		ops := make([]task.DBOperation, 0, len(tasks))
		for _, t := range tasks {
			var op task.DBOperation
			if err := t.Decode(&op); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := op.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("task %s: invalid db operation: %w", t.ID, err))
				continue
			}
			ops = append(ops, op)
		}

		for _, group := range groupByCollection(ops) {
			var written, skipped int
			var rejected []error
			err := store.RunInTransaction(ctx, p.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
				written, skipped, rejected = 0, 0, nil
				docs := p.deps.Documents.WithTx(tx)
				users := p.deps.Users.WithTx(tx)
				for _, op := range group.ops {
					err := store.RunInSavepoint(ctx, tx, writeSavepoint, func(ctx context.Context) error {
						return applyWrite(ctx, docs, users, op)
					})
					switch {
					case err == nil:
						written++
					case errors.Is(err, store.ErrDedupKeyExists):
						skipped++
					case errors.Is(err, store.ErrTransactionFailed):
						return store.NewStoreError(group.collection, string(op.Operation), "write failed", err)
					default:
						rejected = append(rejected,
							store.NewStoreError(group.collection, string(op.Operation), "write rejected", err))
					}
				}
				return nil
			})
			if err != nil {
				log.ErrorContext(ctx, "bulk write failed",
					"collection", group.collection,
					"operations", len(group.ops),
					"error", err)
				errs = append(errs, err)
				continue
			}
			log.InfoContext(ctx, "bulk write committed",
				"collection", group.collection,
				"written", written,
				"skipped_duplicates", skipped,
				"rejected", len(rejected))
			for _, rejectErr := range rejected {
				log.WarnContext(ctx, "bulk write rejected operation",
					"collection", group.collection,
					"error", rejectErr)
			}
			errs = append(errs, rejected...)
		}
		return errors.Join(errs...)
	})
}

func applyWrite(ctx context.Context, docs store.DocumentStore, users store.UserStore, op task.DBOperation) error {
	if op.Collection == CollectionUsers {
		if op.Operation != task.OpUpsert {
			return fmt.Errorf("unsupported operation on users: %s", op.Operation)
		}
		var user domain.User
		if err := json.Unmarshal(op.Data, &user); err != nil {
			return fmt.Errorf("failed to decode user: %w", err)
		}
		return users.Upsert(ctx, &user)
	}

	switch op.Operation {
	case task.OpInsert:
		return docs.Insert(ctx, &store.Document{
			ID:         uuid.New(),
			Collection: op.Collection,
			DedupKey:   op.DedupKey,
			Data:       op.Data,
		})
	case task.OpUpdate:
		return docs.Update(ctx, op.Collection, uuid.MustParse(op.DocumentID), op.Data)
	case task.OpDelete:
		return docs.Delete(ctx, op.Collection, uuid.MustParse(op.DocumentID))
	default:
		return fmt.Errorf("unsupported operation on %s: %s", op.Collection, op.Operation)
	}
}
