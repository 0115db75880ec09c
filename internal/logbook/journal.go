// Package logbook keeps a git-backed journal per trip. Every boat log write
// becomes a commit, so the log's history is tamper-evident and reviewable
// after the trip.
package logbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Entry is the journaled form of a boat log entry.
type Entry struct {
	ID        string    `json:"id"`
	BoatID    string    `json:"boatId"`
	AuthorID  string    `json:"authorId"`
	EntryDate time.Time `json:"entryDate"`
	Body      string    `json:"body"`
	Position  string    `json:"position,omitempty"`
	Weather   string    `json:"weather,omitempty"`
}

// CommitInfo summarizes one journal commit.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// EnsureTripJournal initializes the journal repository for a trip if it does
// not exist yet.
func (s *Service) EnsureTripJournal(tripID, author string) error {
	lock := s.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	path := s.repoPath(tripID)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat journal path: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(path, "entries"), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	readme := fmt.Sprintf("Boat log journal for trip %s.\n", tripID)
	if err := os.WriteFile(filepath.Join(path, "README"), []byte(readme), 0o644); err != nil {
		return fmt.Errorf("write journal readme: %w", err)
	}
	if _, err := worktree.Add("README"); err != nil {
		return fmt.Errorf("git add readme: %w", err)
	}
	hash, err := worktree.Commit("Open journal", &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return fmt.Errorf("commit journal baseline: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// RecordEntry writes an entry file and commits it. Updating an existing entry
// overwrites the file and produces a new commit.
func (s *Service) RecordEntry(tripID string, entry Entry, author string) (CommitInfo, error) {
	lock := s.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(tripID))
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open journal: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return CommitInfo{}, fmt.Errorf("marshal entry: %w", err)
	}

	relPath := filepath.Join("entries", entry.ID+".json")
	fullPath := filepath.Join(worktree.Filesystem.Root(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return CommitInfo{}, fmt.Errorf("create entries dir: %w", err)
	}
	if err := os.WriteFile(fullPath, append(payload, '\n'), 0o644); err != nil {
		return CommitInfo{}, fmt.Errorf("write entry file: %w", err)
	}
	if _, err := worktree.Add(relPath); err != nil {
		return CommitInfo{}, fmt.Errorf("git add entry: %w", err)
	}

	message := fmt.Sprintf("Log entry %s for boat %s", entry.ID, entry.BoatID)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit entry: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// RemoveEntry deletes an entry file and commits the removal, keeping the
// deletion itself on record.
func (s *Service) RemoveEntry(tripID, entryID, author string) (CommitInfo, error) {
	lock := s.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(tripID))
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open journal: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	relPath := filepath.Join("entries", entryID+".json")
	if _, err := worktree.Remove(relPath); err != nil {
		return CommitInfo{}, fmt.Errorf("git rm entry: %w", err)
	}

	hash, err := worktree.Commit(fmt.Sprintf("Remove log entry %s", entryID), &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit removal: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// History lists the journal commits, newest first.
func (s *Service) History(tripID string, limit int) ([]CommitInfo, error) {
	lock := s.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(tripID))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// EntryAt reads an entry's journaled form at a given commit hash.
func (s *Service) EntryAt(tripID, entryID, hash string) (Entry, error) {
	lock := s.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(tripID))
	if err != nil {
		return Entry{}, fmt.Errorf("open journal: %w", err)
	}

	resolvedHash, err := resolveHash(repo, hash)
	if err != nil {
		return Entry{}, err
	}
	commitObj, err := repo.CommitObject(resolvedHash)
	if err != nil {
		return Entry{}, fmt.Errorf("read commit %s: %w", hash, err)
	}

	file, err := commitObj.File("entries/" + entryID + ".json")
	if err != nil {
		return Entry{}, fmt.Errorf("load entry from commit: %w", err)
	}
	reader, err := file.Reader()
	if err != nil {
		return Entry{}, fmt.Errorf("open entry reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return Entry{}, fmt.Errorf("read entry bytes: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, fmt.Errorf("decode journaled entry: %w", err)
	}
	return entry, nil
}

func (s *Service) repoPath(tripID string) string {
	return filepath.Join(s.baseDir, tripID)
}

func (s *Service) tripLock(tripID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[tripID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[tripID] = lock
	return lock
}

func signature(author string) *object.Signature {
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@local.sailplan.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func toCommitInfo(commitObj *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func sanitizeEmail(input string) string {
	runes := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			runes = append(runes, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			runes = append(runes, '.')
		}
	}
	if len(runes) == 0 {
		return "user"
	}
	return string(runes)
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
