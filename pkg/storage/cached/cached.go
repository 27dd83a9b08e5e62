// Package cached wraps a storage driver with in-process LRU caches for
// the read paths the blame engine hits repeatedly. Writes that go through
// the wrapper invalidate their entries; writes from another process do
// not, so use it where the server is the only writer.
package cached

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/papercomputeco/rewind/pkg/agenttrace"
	"github.com/papercomputeco/rewind/pkg/storage"
)

// DefaultSize is the per-cache entry cap used when New is given a
// non-positive size.
const DefaultSize = 1024

// key scopes cache entries to a project.
type key struct {
	project string
	id      string
}

// Driver decorates another storage.Driver with commit link, ledger, and
// conversation content caches. Everything else passes straight through.
type Driver struct {
	storage.Driver

	links         *lru.Cache[key, *agenttrace.CommitLink]
	ledgers       *lru.Cache[key, *agenttrace.Ledger]
	conversations *lru.Cache[key, string]
}

// New wraps inner with caches holding up to size entries each. A
// non-positive size means DefaultSize.
func New(inner storage.Driver, size int) (*Driver, error) {
	if size <= 0 {
		size = DefaultSize
	}

	links, err := lru.New[key, *agenttrace.CommitLink](size)
	if err != nil {
		return nil, err
	}
	ledgers, err := lru.New[key, *agenttrace.Ledger](size)
	if err != nil {
		return nil, err
	}
	conversations, err := lru.New[key, string](size)
	if err != nil {
		return nil, err
	}

	return &Driver{
		Driver:        inner,
		links:         links,
		ledgers:       ledgers,
		conversations: conversations,
	}, nil
}

// GetCommitLink retrieves the commit link for a commit SHA, serving
// repeats from the cache. Absent links are cached too.
func (d *Driver) GetCommitLink(ctx context.Context, projectID, commitSHA string) (*agenttrace.CommitLink, error) {
	k := key{project: projectID, id: commitSHA}
	if link, ok := d.links.Get(k); ok {
		return link, nil
	}

	link, err := d.Driver.GetCommitLink(ctx, projectID, commitSHA)
	if err != nil {
		return nil, err
	}
	d.links.Add(k, link)
	return link, nil
}

// GetLedger retrieves the attribution ledger stored on a commit link,
// serving repeats from the cache.
func (d *Driver) GetLedger(ctx context.Context, projectID, commitSHA string) (*agenttrace.Ledger, error) {
	k := key{project: projectID, id: commitSHA}
	if ledger, ok := d.ledgers.Get(k); ok {
		return ledger, nil
	}

	ledger, err := d.Driver.GetLedger(ctx, projectID, commitSHA)
	if err != nil {
		return nil, err
	}
	d.ledgers.Add(k, ledger)
	return ledger, nil
}

// GetConversationContent retrieves stored conversation content by URL,
// serving repeats from the cache.
func (d *Driver) GetConversationContent(ctx context.Context, projectID, url string) (string, error) {
	k := key{project: projectID, id: url}
	if content, ok := d.conversations.Get(k); ok {
		return content, nil
	}

	content, err := d.Driver.GetConversationContent(ctx, projectID, url)
	if err != nil {
		return "", err
	}
	d.conversations.Add(k, content)
	return content, nil
}

// CreateCommitLink stores a commit link and drops the cached link and
// ledger for its SHA.
func (d *Driver) CreateCommitLink(ctx context.Context, projectID string, link *agenttrace.CommitLink) error {
	if err := d.Driver.CreateCommitLink(ctx, projectID, link); err != nil {
		return err
	}
	if link != nil {
		k := key{project: projectID, id: link.CommitSHA}
		d.links.Remove(k)
		d.ledgers.Remove(k)
	}
	return nil
}

// UpsertConversationContents stores conversation contents and drops the
// cached content for each written URL.
func (d *Driver) UpsertConversationContents(ctx context.Context, projectID string, contents []agenttrace.ConversationContent) (int, error) {
	written, err := d.Driver.UpsertConversationContents(ctx, projectID, contents)
	if err != nil {
		return written, err
	}
	for _, c := range contents {
		d.conversations.Remove(key{project: projectID, id: c.URL})
	}
	return written, nil
}
