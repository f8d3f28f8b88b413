//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClientBuilder_EmptyConnString(t *testing.T) {
	_, err := defaultClientBuilder(context.Background())
	require.Error(t, err)
	assert.Equal(t, "postgres: connection string is empty", err.Error())
}

func TestSetGetClientBuilder(t *testing.T) {
	oldBuilder := GetClientBuilder()
	defer func() { SetClientBuilder(oldBuilder) }()

	var got ClientBuilderOpts
	SetClientBuilder(func(_ context.Context, opts ...ClientBuilderOpt) (Client, error) {
		for _, opt := range opts {
			opt(&got)
		}
		return nil, nil
	})
	_, err := NewClient(context.Background(),
		WithClientConnString("postgres://u:p@localhost:5432/db"), WithMaxOpenConns(3))
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/db", got.ConnString)
	assert.Equal(t, 3, got.MaxOpenConns)
}

func TestSQLClientExecAndQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	client := WrapDB(db)

	mock.ExpectExec("INSERT INTO test").WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	res, err := client.ExecContext(context.Background(), "INSERT INTO test VALUES ($1)", "a")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "first").AddRow(2, "second")
	mock.ExpectQuery("SELECT id, name FROM test").WillReturnRows(rows)
	var names []string
	err = client.Query(context.Background(), func(r *sql.Rows) error {
		for r.Next() {
			var id int
			var name string
			if err := r.Scan(&id, &name); err != nil {
				return err
			}
			names = append(names, name)
		}
		return nil
	}, "SELECT id, name FROM test")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, names)

	mock.ExpectClose()
	require.NoError(t, client.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLClientQueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	client := WrapDB(db)

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection reset"))
	err = client.Query(context.Background(), func(*sql.Rows) error { return nil }, "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	handlerErr := errors.New("handler failed")
	mock.ExpectQuery("SELECT 2").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	err = client.Query(context.Background(), func(*sql.Rows) error { return handlerErr }, "SELECT 2")
	assert.ErrorIs(t, err, handlerErr)
}
