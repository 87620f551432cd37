package metafields

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopadmin-cli/shopadmin/pkg/apierr"
	"github.com/tidwall/gjson"
)

// fakeStore is an in-memory stand-in for the remote store. Deleting a
// definition with cascade removes matching metafields from every resource.
type fakeStore struct {
	pageSize  int
	resources map[ResourceType][]*Resource
	// definitions maps owner|namespace|key to a definition id.
	definitions map[string]string
	nextID      int

	fetchErr  error
	createErr error
	deleteErr error
	// keepOnDelete leaves metafields in place, imitating a delete that did
	// not propagate.
	keepOnDelete bool

	fetches  []string
	creates  []string
	owners   []OwnerType
	deletes  []string
	lookups  int
	cascades []bool
}

func newFakeStore(pageSize int) *fakeStore {
	return &fakeStore{
		pageSize:    pageSize,
		resources:   make(map[ResourceType][]*Resource),
		definitions: make(map[string]string),
		nextID:      1000,
	}
}

func (f *fakeStore) add(rt ResourceType, res Resource) {
	res.Kind = rt
	f.resources[rt] = append(f.resources[rt], &res)
}

func defKey(owner OwnerType, ns, key string) string {
	return string(owner) + "|" + ns + "|" + key
}

func (f *fakeStore) FetchPage(ctx context.Context, rt ResourceType, cursor string) (Page, error) {
	f.fetches = append(f.fetches, cursor)
	if f.fetchErr != nil {
		return Page{}, f.fetchErr
	}

	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return Page{}, fmt.Errorf("bad cursor %q", cursor)
		}
		start = n
	}

	all := f.resources[rt]
	end := start + f.pageSize
	if end > len(all) {
		end = len(all)
	}

	var page Page
	for _, res := range all[start:end] {
		cp := *res
		cp.Metafields = append([]Metafield(nil), res.Metafields...)
		page.Resources = append(page.Resources, cp)
	}
	page.HasNextPage = end < len(all)
	if len(page.Resources) > 0 {
		page.EndCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeStore) FindDefinition(ctx context.Context, ns, key string, owner OwnerType) (string, error) {
	f.lookups++
	return f.definitions[defKey(owner, ns, key)], nil
}

func (f *fakeStore) CreateDefinition(ctx context.Context, ns, key, typ string, owner OwnerType) (string, error) {
	f.creates = append(f.creates, ns+":"+key+"="+typ)
	f.owners = append(f.owners, owner)
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("gid://shopify/MetafieldDefinition/%d", f.nextID)
	f.definitions[defKey(owner, ns, key)] = id
	return id, nil
}

func (f *fakeStore) DeleteDefinition(ctx context.Context, id string, cascade bool) error {
	f.deletes = append(f.deletes, id)
	f.cascades = append(f.cascades, cascade)
	if f.deleteErr != nil {
		return f.deleteErr
	}

	var owner OwnerType
	var ns, key string
	found := false
	for k, v := range f.definitions {
		if v == id {
			delete(f.definitions, k)
			parts := strings.SplitN(k, "|", 3)
			owner, ns, key = OwnerType(parts[0]), parts[1], parts[2]
			found = true
			break
		}
	}
	if !found {
		return &apierr.UserErrors{Operation: "metafieldDefinitionDelete", Errors: []apierr.UserError{{Field: []string{"id"}, Message: "Definition not found"}}}
	}
	if !cascade || f.keepOnDelete {
		return nil
	}

	rt := Product
	if owner == OwnerProductVariant {
		rt = Variant
	}
	for _, res := range f.resources[rt] {
		kept := res.Metafields[:0]
		for _, mf := range res.Metafields {
			if mf.Namespace == ns && mf.Key == key {
				continue
			}
			kept = append(kept, mf)
		}
		res.Metafields = kept
	}
	return nil
}

// scriptedConfirmer answers prompts from a list, then falls back to def.
type scriptedConfirmer struct {
	answers  []bool
	messages []string
}

func (c *scriptedConfirmer) Confirm(message string, def bool) (bool, error) {
	c.messages = append(c.messages, message)
	if len(c.answers) == 0 {
		return def, nil
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a, nil
}

type payloadError struct{ raw string }

func (e payloadError) Error() string          { return "graphql request failed" }
func (e payloadError) Payload() gjson.Result { return gjson.Parse(e.raw) }

type memoryJournal struct {
	deletions []Deletion
	err       error
}

func (j *memoryJournal) RecordDeletion(ctx context.Context, d Deletion) error {
	j.deletions = append(j.deletions, d)
	return j.err
}
