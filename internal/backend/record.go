package backend

import (
	"github.com/tidwall/gjson"
)

// Field is one key/value pair of a JSON object, in document order.
type Field struct {
	Key   string
	Value any
}

// Record is a JSON object that keeps the backend's key order.
//
// Values are scalars as decoded by gjson (float64, string, bool, nil);
// nested objects and arrays are kept as their generic Go form.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the record's keys in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Prediction is the response of GET /{model}/predict.
type Prediction struct {
	// Positive is true only when the API answered prediction == 1.
	Positive bool
	// Class is the raw prediction value.
	Class any
	// Score is the raw score value.
	Score any
	// TopFactors is nil when the API sent none.
	TopFactors Record
}

func recordFrom(obj gjson.Result) Record {
	rec := Record{}
	obj.ForEach(func(key, value gjson.Result) bool {
		rec = append(rec, Field{Key: key.String(), Value: value.Value()})
		return true
	})
	return rec
}

func predictionFrom(doc gjson.Result) Prediction {
	class := doc.Get("prediction")
	p := Prediction{
		Positive: class.Type == gjson.Number && class.Num == 1,
		Class:    class.Value(),
		Score:    doc.Get("score").Value(),
	}
	if tf := doc.Get("top_factors"); tf.IsObject() {
		p.TopFactors = recordFrom(tf)
	}
	return p
}
