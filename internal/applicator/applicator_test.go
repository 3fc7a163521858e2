package applicator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/h2atecnologia/mongoose-lean-virtuals/internal/schema"
)

func upperOf(field string) schema.Getter {
	return func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		s, _ := doc[field].(string)
		return strings.ToUpper(s), nil
	}
}

func lowerOf(field string) schema.Getter {
	return func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		s, _ := doc[field].(string)
		return strings.ToLower(s), nil
	}
}

func constGetter(v any) schema.Getter {
	return func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		return v, nil
	}
}

func failingGetter(err error) schema.Getter {
	return func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		return nil, err
	}
}

func personSchema() *schema.Schema {
	return schema.NewSchema("Person").
		AddVirtual("lowercase", lowerOf("name")).
		AddVirtual("uppercase", upperOf("name"))
}

func TestApply_AllVirtuals(t *testing.T) {
	doc := map[string]any{"name": "Val"}

	err := New().Apply(context.Background(), personSchema(), doc, All())
	require.NoError(t, err)

	want := map[string]any{"name": "Val", "lowercase": "val", "uppercase": "VAL"}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_FilterExactness(t *testing.T) {
	doc := map[string]any{"name": "Val"}

	err := New().Apply(context.Background(), personSchema(), doc, Pick("uppercase"))
	require.NoError(t, err)

	want := map[string]any{"name": "Val", "uppercase": "VAL"}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_NestedPathProjection(t *testing.T) {
	child := schema.NewSchema("Child").AddVirtual("uppercaseOther", upperOf("other"))
	sch := schema.NewSchema("Person").
		AddVirtual("uppercaseOther", upperOf("name")). // same name at root must stay unselected
		AddChild("childs", child, schema.CardinalityList)
	doc := map[string]any{"childs": []any{map[string]any{"other": "val"}}}

	err := New().Apply(context.Background(), sch, doc, Pick("childs.uppercaseOther"))
	require.NoError(t, err)

	want := map[string]any{"childs": []any{map[string]any{"other": "val", "uppercaseOther": "VAL"}}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_MixedRootAndNestedFilter(t *testing.T) {
	child := schema.NewSchema("Child").AddVirtual("uppercaseOther", upperOf("other"))
	sch := schema.NewSchema("Person").
		AddVirtual("lowercaseName", lowerOf("name")).
		AddChild("childs", child, schema.CardinalityList)
	doc := map[string]any{
		"name":   "Val",
		"childs": []any{map[string]any{"other": "val"}},
	}

	err := New().Apply(context.Background(), sch, doc, Pick("lowercaseName", "childs.uppercaseOther"))
	require.NoError(t, err)

	want := map[string]any{
		"name":          "Val",
		"lowercaseName": "val",
		"childs":        []any{map[string]any{"other": "val", "uppercaseOther": "VAL"}},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_AbsentChildIsNoop(t *testing.T) {
	child := schema.NewSchema("Child").AddVirtual("uppercaseOther", upperOf("other"))
	sch := schema.NewSchema("Person").AddChild("childs", child, schema.CardinalityList)

	for _, doc := range []map[string]any{
		{"name": "Val"},
		{"name": "Val", "childs": nil},
	} {
		err := New().Apply(context.Background(), sch, doc, Pick("childs.uppercaseOther"))
		require.NoError(t, err)
		if _, ok := doc["childs"]; ok {
			require.Nil(t, doc["childs"])
		}
	}
}

func TestApply_SingleEmbeddedChild(t *testing.T) {
	child := schema.NewSchema("Address").AddVirtual("upperCity", upperOf("city"))
	sch := schema.NewSchema("Person").AddChild("address", child, schema.CardinalitySingle)
	doc := map[string]any{"address": map[string]any{"city": "oslo"}}

	err := New().Apply(context.Background(), sch, doc, All())
	require.NoError(t, err)

	want := map[string]any{"address": map[string]any{"city": "oslo", "upperCity": "OSLO"}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_ObjectValuedVirtual(t *testing.T) {
	sch := schema.NewSchema("Person").
		AddVirtual("nested", constGetter(map[string]any{"a": "Val"}))
	doc := map[string]any{}

	err := New().Apply(context.Background(), sch, doc, All())
	require.NoError(t, err)

	nested, ok := doc["nested"].(map[string]any)
	require.True(t, ok, "object-valued virtual must be written wholesale")
	require.Equal(t, "Val", nested["a"])
}

func TestApply_ArrayFanOut(t *testing.T) {
	docs := []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
		map[string]any{"name": "c"},
	}

	err := New().Apply(context.Background(), personSchema(), docs, Pick("uppercase"))
	require.NoError(t, err)

	want := []any{
		map[string]any{"name": "a", "uppercase": "A"},
		map[string]any{"name": "b", "uppercase": "B"},
		map[string]any{"name": "c", "uppercase": "C"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_TypedDocumentSlice(t *testing.T) {
	docs := []map[string]any{{"name": "a"}, {"name": "b"}}

	err := New().Apply(context.Background(), personSchema(), docs, Pick("uppercase"))
	require.NoError(t, err)

	want := []map[string]any{
		{"name": "a", "uppercase": "A"},
		{"name": "b", "uppercase": "B"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Fatalf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_Idempotent(t *testing.T) {
	doc := map[string]any{"name": "Val", "existing": 42}
	app := New()

	require.NoError(t, app.Apply(context.Background(), personSchema(), doc, All()))
	first := map[string]any{}
	for k, v := range doc {
		first[k] = v
	}
	require.NoError(t, app.Apply(context.Background(), personSchema(), doc, All()))

	if diff := cmp.Diff(first, doc); diff != "" {
		t.Fatalf("second apply changed the document (-want +got):\n%s", diff)
	}
	require.Equal(t, 42, doc["existing"])
	require.Equal(t, "Val", doc["name"])
}

func TestApply_DeclarationOrderIsObservable(t *testing.T) {
	// full reads the value initials wrote one step earlier.
	sch := schema.NewSchema("Person").
		AddVirtual("initials", func(ctx context.Context, prev any, doc map[string]any) (any, error) {
			s, _ := doc["name"].(string)
			return strings.ToUpper(s[:1]), nil
		}).
		AddVirtual("tagged", func(ctx context.Context, prev any, doc map[string]any) (any, error) {
			ini, _ := doc["initials"].(string)
			return ini + ":" + "tag", nil
		})
	doc := map[string]any{"name": "val"}

	err := New().Apply(context.Background(), sch, doc, All())
	require.NoError(t, err)
	require.Equal(t, "V:tag", doc["tagged"])
}

func TestApply_GetterChainFeedsPreviousValue(t *testing.T) {
	// The first getter receives the raw stored value of the field.
	sch := schema.NewSchema("Person").
		AddVirtual("name",
			func(ctx context.Context, prev any, doc map[string]any) (any, error) {
				s, _ := prev.(string)
				return strings.TrimSpace(s), nil
			},
			func(ctx context.Context, prev any, doc map[string]any) (any, error) {
				s, _ := prev.(string)
				return strings.ToUpper(s), nil
			})
	doc := map[string]any{"name": "  val "}

	err := New().Apply(context.Background(), sch, doc, All())
	require.NoError(t, err)
	require.Equal(t, "VAL", doc["name"])
}

func TestApply_GetterErrorPropagatesWithPath(t *testing.T) {
	boom := errors.New("boom")
	child := schema.NewSchema("Child").AddVirtual("bad", failingGetter(boom))
	sch := schema.NewSchema("Person").
		AddVirtual("uppercase", upperOf("name")).
		AddChild("childs", child, schema.CardinalityList)
	doc := map[string]any{
		"name":   "Val",
		"childs": []any{map[string]any{}},
	}

	err := New().Apply(context.Background(), sch, doc, All())
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), `virtual "childs.bad"`)

	// No rollback: the sibling virtual written before the failure stays.
	require.Equal(t, "VAL", doc["uppercase"])
}

func TestApply_UnmatchedFilterEntriesIgnored(t *testing.T) {
	doc := map[string]any{"name": "Val"}

	err := New().Apply(context.Background(), personSchema(), doc,
		Pick("uppercase", "nope", "missing.deeply.nested"))
	require.NoError(t, err)

	want := map[string]any{"name": "Val", "uppercase": "VAL"}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_NilTargetIsNoop(t *testing.T) {
	app := New()
	require.NoError(t, app.Apply(context.Background(), personSchema(), nil, All()))

	var docs []any
	require.NoError(t, app.Apply(context.Background(), personSchema(), docs, All()))

	var doc map[string]any
	require.NoError(t, app.Apply(context.Background(), personSchema(), doc, All()))
}

func TestApply_ScalarChildTargetSkipped(t *testing.T) {
	child := schema.NewSchema("Child").AddVirtual("x", constGetter(1))
	sch := schema.NewSchema("Person").AddChild("childs", child, schema.CardinalitySingle)
	doc := map[string]any{"childs": "not a document"}

	err := New().Apply(context.Background(), sch, doc, All())
	require.NoError(t, err)
	require.Equal(t, "not a document", doc["childs"])
}

func TestApply_VirtualValueWithNestedShape(t *testing.T) {
	// A virtual returning an object whose name is also a child path: the
	// engine recurses into the value the virtual just wrote.
	inner := schema.NewSchema("Profile").AddVirtual("upperBio", upperOf("bio"))
	sch := schema.NewSchema("Person").
		AddVirtual("profile", constGetter(map[string]any{"bio": "hi"})).
		AddChild("profile", inner, schema.CardinalitySingle)
	doc := map[string]any{}

	err := New().Apply(context.Background(), sch, doc, Pick("profile", "profile.upperBio"))
	require.NoError(t, err)

	want := map[string]any{"profile": map[string]any{"bio": "hi", "upperBio": "HI"}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_ChildFilterNeverFallsBackToAll(t *testing.T) {
	child := schema.NewSchema("Child").AddVirtual("uppercaseOther", upperOf("other"))
	sch := schema.NewSchema("Person").
		AddVirtual("lowercase", lowerOf("name")).
		AddChild("childs", child, schema.CardinalityList)
	doc := map[string]any{
		"name":   "Val",
		"childs": []any{map[string]any{"other": "val"}},
	}

	// Only a root-level entry: the child level must apply nothing.
	err := New().Apply(context.Background(), sch, doc, Pick("lowercase"))
	require.NoError(t, err)

	want := map[string]any{
		"name":      "Val",
		"lowercase": "val",
		"childs":    []any{map[string]any{"other": "val"}},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_DeepNesting(t *testing.T) {
	grandchild := schema.NewSchema("City").AddVirtual("upper", upperOf("name"))
	child := schema.NewSchema("Address").AddChild("city", grandchild, schema.CardinalitySingle)
	sch := schema.NewSchema("Person").AddChild("address", child, schema.CardinalitySingle)
	doc := map[string]any{
		"address": map[string]any{"city": map[string]any{"name": "oslo"}},
	}

	err := New().Apply(context.Background(), sch, doc, Pick("address.city.upper"))
	require.NoError(t, err)

	want := map[string]any{
		"address": map[string]any{"city": map[string]any{"name": "oslo", "upper": "OSLO"}},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}
