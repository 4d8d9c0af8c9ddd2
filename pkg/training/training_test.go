package training

import (
	"encoding/json"
	"testing"
)

func TestPriceResponseDecodesStringUint64(t *testing.T) {
	// protojson emits uint64 fields as JSON strings
	var resp priceResponse
	if err := json.Unmarshal([]byte(`{"price":"4000000000"}`), &resp); err != nil {
		t.Fatalf("unmarshal price: %v", err)
	}
	if resp.Price != 4000000000 {
		t.Fatalf("expected price 4000000000, got %d", resp.Price)
	}
}

func TestModelListDecode(t *testing.T) {
	body := []byte(`{
		"list_of_models": [
			{"model_id": "m1", "status": "READY_TO_USE", "name": "first"},
			{"model_id": "m2", "status": "TRAINING", "name": "second", "is_public": true}
		],
		"total_count": 2
	}`)

	var list ModelList
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("unmarshal model list: %v", err)
	}
	if list.TotalCount != 2 || len(list.Models) != 2 {
		t.Fatalf("unexpected page: total=%d models=%d", list.TotalCount, len(list.Models))
	}
	if list.Models[0].ModelID != "m1" || list.Models[0].Status != StatusReadyToUse {
		t.Fatalf("unexpected first model: %+v", list.Models[0])
	}
	if !list.Models[1].IsPublic {
		t.Fatal("expected second model to be public")
	}
}

func TestModelFiltersOmitZeroValues(t *testing.T) {
	body, err := json.Marshal(ModelFilters{Name: "x"})
	if err != nil {
		t.Fatalf("marshal filters: %v", err)
	}
	if string(body) != `{"name":"x"}` {
		t.Fatalf("zero filter fields leaked into request: %s", body)
	}
}

func TestCreateModelRequiresName(t *testing.T) {
	c := NewDaemonClient(nil, nil, nil, "org", "svc", "group", 0)
	if _, err := c.CreateModel(nil); err == nil {
		t.Fatal("expected error for nil params")
	}
	if _, err := c.CreateModel(&ModelParams{}); err == nil {
		t.Fatal("expected error for empty model name")
	}
}

func TestUpdateModelRequiresID(t *testing.T) {
	c := NewDaemonClient(nil, nil, nil, "org", "svc", "group", 0)
	if _, err := c.UpdateModel("", &ModelParams{Name: "n"}); err == nil {
		t.Fatal("expected error for empty model id")
	}
}
