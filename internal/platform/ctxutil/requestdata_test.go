package ctxutil

import (
	"context"
	"reflect"
	"testing"
)

func TestActor(t *testing.T) {
	if got := Actor(context.Background()); got != "" {
		t.Fatalf("anonymous: got=%q", got)
	}
	ctx := WithRequestData(context.Background(), &RequestData{UserID: "u-1"})
	if got := Actor(ctx); got != "u-1" {
		t.Fatalf("id fallback: got=%q", got)
	}
	ctx = WithRequestData(context.Background(), &RequestData{UserID: "u-1", DisplayName: " Noa Levi "})
	if got := Actor(ctx); got != "Noa Levi" {
		t.Fatalf("display name: got=%q", got)
	}
}

func TestEnsureReusesExisting(t *testing.T) {
	ctx, rd := Ensure(context.Background())
	rd.RequestID = "req-1"
	again, same := Ensure(ctx)
	if same != rd || again != ctx {
		t.Fatalf("Ensure should return the stored value")
	}
	if got := LogFields(ctx); !reflect.DeepEqual(got, []interface{}{"request_id", "req-1"}) {
		t.Fatalf("log fields: %v", got)
	}
	if LogFields(context.Background()) != nil {
		t.Fatalf("no request data should give no fields")
	}
}
