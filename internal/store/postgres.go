package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/settlewatch/settlewatch/internal/model"
)

// Postgres stores settlements in a single table with a uniqueness constraint
// on the conflict column. Expected shape:
//
//	CREATE TABLE settlements (
//	    source_id        text PRIMARY KEY,
//	    name             text NOT NULL,
//	    company_name     text NOT NULL DEFAULT '',
//	    payout_min       double precision,
//	    payout_max       double precision,
//	    deadline         date,
//	    days_left        integer,
//	    case_type        text,
//	    category         text,
//	    requires_proof   boolean,
//	    about_text       text,
//	    eligibility_text text,
//	    claim_url        text,
//	    source_url       text,
//	    logo_url         text,
//	    is_featured      boolean,
//	    is_major_brand   boolean,
//	    first_seen_at    timestamptz NOT NULL DEFAULT now(),
//	    updated_at       timestamptz NOT NULL DEFAULT now()
//	);
type Postgres struct {
	pool      *pgxpool.Pool
	upsertSQL string
	batchSize int
}

// OpenPostgres connects a pool using the DSN and storage settings from cfg.
func OpenPostgres(ctx context.Context, cfg model.StorageConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is empty (set SETTLEWATCH_PG_DSN)")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 2
	}
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Postgres{
		pool:      pool,
		upsertSQL: buildUpsertSQL(cfg.Schema, cfg.Table, cfg.ConflictColumn),
		batchSize: batchSize,
	}, nil
}

// buildUpsertSQL renders the insert-or-overwrite statement. The conflict
// target is configurable to match whichever column actually carries the
// unique constraint. `RETURNING (xmax = 0)` is true only for fresh inserts,
// which is how the run summary splits inserted from updated.
func buildUpsertSQL(schema, table, conflictColumn string) string {
	if schema == "" {
		schema = "public"
	}
	if table == "" {
		table = "settlements"
	}
	if conflictColumn == "" {
		conflictColumn = "source_id"
	}
	return fmt.Sprintf(`INSERT INTO %q.%q
		(source_id, name, company_name, payout_min, payout_max, deadline, days_left,
		 case_type, category, requires_proof, about_text, eligibility_text,
		 claim_url, source_url, logo_url, is_featured, is_major_brand, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
		ON CONFLICT (%q) DO UPDATE SET
		 name = EXCLUDED.name,
		 company_name = EXCLUDED.company_name,
		 payout_min = EXCLUDED.payout_min,
		 payout_max = EXCLUDED.payout_max,
		 deadline = EXCLUDED.deadline,
		 days_left = EXCLUDED.days_left,
		 case_type = EXCLUDED.case_type,
		 category = EXCLUDED.category,
		 requires_proof = EXCLUDED.requires_proof,
		 about_text = EXCLUDED.about_text,
		 eligibility_text = EXCLUDED.eligibility_text,
		 claim_url = EXCLUDED.claim_url,
		 source_url = EXCLUDED.source_url,
		 logo_url = EXCLUDED.logo_url,
		 is_featured = EXCLUDED.is_featured,
		 is_major_brand = EXCLUDED.is_major_brand,
		 updated_at = now()
		RETURNING (xmax = 0) AS inserted`, schema, table, conflictColumn)
}

func upsertArgs(rec *model.Settlement) []any {
	return []any{
		rec.SourceID, rec.Name, rec.CompanyName, rec.PayoutMin, rec.PayoutMax,
		rec.Deadline, rec.DaysLeft, nullable(rec.CaseType), nullable(rec.Category),
		rec.RequiresProof, nullable(rec.AboutText), nullable(rec.EligibilityText),
		nullable(rec.ClaimURL), nullable(rec.SourceURL), nullable(rec.LogoURL),
		rec.IsFeatured, rec.IsMajorBrand,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UpsertBatch writes records in chunks using a pipelined batch. A failure
// inside a chunk aborts the remainder of that batch on the wire, so the
// chunk is replayed record-by-record to isolate the failing rows.
func (p *Postgres) UpsertBatch(ctx context.Context, records []model.Settlement) ([]Result, error) {
	return upsertChunks(ctx, p, records, p.batchSize)
}

// chunkWriter is the per-chunk write surface upsertChunks drives. Postgres
// implements it against the pool.
type chunkWriter interface {
	upsertChunk(ctx context.Context, chunk []model.Settlement) ([]Result, error)
	upsertOneByOne(ctx context.Context, chunk []model.Settlement) []Result
}

func upsertChunks(ctx context.Context, w chunkWriter, records []model.Settlement, batchSize int) ([]Result, error) {
	results := make([]Result, 0, len(records))

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		chunk := records[start:end]

		chunkResults, err := w.upsertChunk(ctx, chunk)
		if err != nil {
			// A cancellation fails every statement left on the wire;
			// replaying it would mint one PersistenceError per record
			// instead of reporting the cancellation itself.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			chunkResults = w.upsertOneByOne(ctx, chunk)
		}
		results = append(results, chunkResults...)

		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	return results, nil
}

func (p *Postgres) upsertChunk(ctx context.Context, chunk []model.Settlement) ([]Result, error) {
	b := &pgx.Batch{}
	for i := range chunk {
		b.Queue(p.upsertSQL, upsertArgs(&chunk[i])...)
	}

	br := p.pool.SendBatch(ctx, b)
	defer br.Close()

	results := make([]Result, 0, len(chunk))
	for i := range chunk {
		var inserted bool
		if err := br.QueryRow().Scan(&inserted); err != nil {
			return nil, fmt.Errorf("batch upsert at %s: %w", chunk[i].SourceID, err)
		}
		results = append(results, Result{SourceID: chunk[i].SourceID, Inserted: inserted})
	}
	return results, nil
}

func (p *Postgres) upsertOneByOne(ctx context.Context, chunk []model.Settlement) []Result {
	results := make([]Result, 0, len(chunk))
	for i := range chunk {
		rec := &chunk[i]
		var inserted bool
		err := p.pool.QueryRow(ctx, p.upsertSQL, upsertArgs(rec)...).Scan(&inserted)
		if err != nil {
			results = append(results, Result{
				SourceID: rec.SourceID,
				Err:      &model.PersistenceError{SourceID: rec.SourceID, Err: err},
			})
			continue
		}
		results = append(results, Result{SourceID: rec.SourceID, Inserted: inserted})
	}
	return results
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
