// Package athena registers the published cache artifacts as Athena external
// tables and runs the follow-up sanity queries.
package athena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
)

type API interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type Runner struct {
	Client    API
	Workgroup string
	Database  string
	OutputS3  string // s3://bucket/prefix/; empty uses the workgroup setting
	Poll      time.Duration
	Logger    *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// ExecAndWait submits sql and polls until it finishes.
func (r *Runner) ExecAndWait(ctx context.Context, sql string) (*types.QueryExecution, error) {
	in := &athena.StartQueryExecutionInput{
		QueryString:           aws.String(sql),
		QueryExecutionContext: &types.QueryExecutionContext{Database: aws.String(r.Database)},
		WorkGroup:             aws.String(r.Workgroup),
	}
	if r.OutputS3 != "" {
		in.ResultConfiguration = &types.ResultConfiguration{OutputLocation: aws.String(r.OutputS3)}
	}
	startOut, err := r.Client.StartQueryExecution(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("start query: %w", err)
	}
	qid := aws.ToString(startOut.QueryExecutionId)
	r.logger().Debug("athena query started", "qid", qid)

	poll := r.Poll
	if poll <= 0 {
		poll = time.Second
	}
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tick.C:
			ge, err := r.Client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
				QueryExecutionId: aws.String(qid),
			})
			if err != nil {
				return nil, fmt.Errorf("get query execution: %w", err)
			}
			qe := ge.QueryExecution
			switch qe.Status.State {
			case types.QueryExecutionStateSucceeded:
				var scannedMB, execSec float64
				if st := qe.Statistics; st != nil {
					scannedMB = float64(aws.ToInt64(st.DataScannedInBytes)) / 1024.0 / 1024.0
					execSec = float64(aws.ToInt64(st.EngineExecutionTimeInMillis)) / 1000.0
				}
				r.logger().Info("athena query succeeded", "qid", qid, "scanned_mb", scannedMB, "exec_s", execSec)
				return qe, nil
			case types.QueryExecutionStateFailed:
				msg := "unknown error"
				if qe.Status.AthenaError != nil && qe.Status.AthenaError.ErrorMessage != nil {
					msg = aws.ToString(qe.Status.AthenaError.ErrorMessage)
				} else if qe.Status.StateChangeReason != nil {
					msg = aws.ToString(qe.Status.StateChangeReason)
				}
				return nil, fmt.Errorf("athena failed (qid=%s): %s", qid, msg)
			case types.QueryExecutionStateCancelled:
				return nil, errors.New("athena cancelled")
			default:
				// still running
			}
		}
	}
}

// Rows runs sql and returns its result set, header row first. Only the
// first page of results is read.
func (r *Runner) Rows(ctx context.Context, sql string) ([][]string, error) {
	exec, err := r.ExecAndWait(ctx, sql)
	if err != nil {
		return nil, err
	}
	gr, err := r.Client.GetQueryResults(ctx, &athena.GetQueryResultsInput{
		QueryExecutionId: exec.QueryExecutionId,
	})
	if err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}
	out := make([][]string, 0, len(gr.ResultSet.Rows))
	for _, row := range gr.ResultSet.Rows {
		cells := make([]string, len(row.Data))
		for i, d := range row.Data {
			cells[i] = aws.ToString(d.VarCharValue)
		}
		out = append(out, cells)
	}
	return out, nil
}

// SingleInt runs a query returning one BIGINT, e.g. COUNT(*).
func (r *Runner) SingleInt(ctx context.Context, sql string) (int64, error) {
	rows, err := r.Rows(ctx, sql)
	if err != nil {
		return 0, err
	}
	// row 0 is header; row 1 is value
	if len(rows) < 2 || len(rows[1]) < 1 {
		return 0, errors.New("unexpected single value result shape")
	}
	n, err := strconv.ParseInt(rows[1][0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse result: %w", err)
	}
	return n, nil
}
