package repository

import (
	"strings"
	"testing"
)

func TestBucketExprByDialectSQLite(t *testing.T) {
	cases := map[TimeBucket]string{
		BucketHourOfDay:  "CAST(strftime('%H', created_at) AS INTEGER)",
		BucketDayOfWeek:  "(CAST(strftime('%w', created_at) AS INTEGER) + 1)",
		BucketDayOfMonth: "CAST(strftime('%d', created_at) AS INTEGER)",
		BucketMonth:      "CAST(strftime('%m', created_at) AS INTEGER)",
	}
	for bucket, want := range cases {
		if got := bucketExprByDialect("sqlite", bucket, "created_at"); got != want {
			t.Fatalf("sqlite %s expr want %s got %s", bucket, want, got)
		}
	}
}

func TestBucketExprByDialectPostgres(t *testing.T) {
	got := bucketExprByDialect("postgres", BucketDayOfWeek, "created_at")
	want := "(CAST(EXTRACT(DOW FROM (created_at AT TIME ZONE 'UTC')) AS INTEGER) + 1)"
	if got != want {
		t.Fatalf("postgres dow expr want %s got %s", want, got)
	}
	got = bucketExprByDialect("postgresql", BucketMonth, "orders.created_at")
	want = "CAST(EXTRACT(MONTH FROM (orders.created_at AT TIME ZONE 'UTC')) AS INTEGER)"
	if got != want {
		t.Fatalf("postgres month expr want %s got %s", want, got)
	}
}

func TestDayDiffExprByDialect(t *testing.T) {
	if got := dayDiffExprByDialect("sqlite", "created_at", "actual_delivery_date"); got != "(julianday(actual_delivery_date) - julianday(created_at))" {
		t.Fatalf("unexpected sqlite day diff: %s", got)
	}
	if got := dayDiffExprByDialect("postgres", "created_at", "actual_delivery_date"); !strings.Contains(got, "EXTRACT(EPOCH FROM (actual_delivery_date - created_at))") {
		t.Fatalf("unexpected postgres day diff: %s", got)
	}
}

func TestBuildLikeConditionByDialect(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("postgres", []string{"order_number", " ", "tracking_number"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "order_number ILIKE ? OR tracking_number ILIKE ?" {
		t.Fatalf("unexpected postgres condition: %s", condition)
	}

	condition, argCount = buildLikeCondition(nil, []string{"pickup_address"})
	if argCount != 1 || condition != `LOWER(pickup_address) LIKE LOWER(?) ESCAPE '\'` {
		t.Fatalf("unexpected sqlite condition: %s (%d)", condition, argCount)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%lagos%", 4)
	if len(args) != 4 {
		t.Fatalf("args len want 4 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%lagos%" {
			t.Fatalf("args[%d] want %%lagos%% got %v", idx, arg)
		}
	}
}
