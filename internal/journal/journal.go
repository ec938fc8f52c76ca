// Copyright 2025 The go-uomiagent Authors
// This file is part of the go-uomiagent library.
//
// The go-uomiagent library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-uomiagent library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-uomiagent library. If not, see <http://www.gnu.org/licenses/>.

// Package journal keeps a local record of submitted agent requests, so that
// request ids survive the process that created them.
package journal

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	ErrNotFound     = errors.New("request not in journal")
	ErrNoRequestID  = errors.New("entry has no request id")
	ErrStatusRewind = errors.New("request status cannot move backwards")
)

// Status is the lifecycle stage of a request as seen by this client.
type Status uint8

const (
	StatusSubmitted Status = iota // callAgent mined, request id known
	StatusAnswered                // output visible through getAgentOutput
	StatusClaimed                 // claimAgentResult mined
	StatusRead                    // result read back and decoded
)

func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusAnswered:
		return "answered"
	case StatusClaimed:
		return "claimed"
	case StatusRead:
		return "read"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Entry is the journal record of one request.
type Entry struct {
	Ticket      string
	RequestID   *big.Int
	NftID       *big.Int
	TxHash      common.Hash
	Sender      common.Address
	InputCID    string
	Input       string
	SubmittedAt uint64
	Status      Status

	Output          []byte   `rlp:"optional"`
	TotalExecutions *big.Int `rlp:"optional"`
	TotalConsensus  *big.Int `rlp:"optional"`
	ValidationCount *big.Int `rlp:"optional"`
	TotalValidator  *big.Int `rlp:"optional"`
}

// Time returns the submission time.
func (e *Entry) Time() time.Time {
	return time.Unix(int64(e.SubmittedAt), 0)
}

// Journal is a LevelDB backed request store.
type Journal struct {
	db   *leveldb.DB
	lock sync.Mutex // serializes read-modify-write cycles
	log  log.Logger
}

// Open opens or creates the journal at dir, recovering a corrupted
// manifest if needed.
func Open(dir string) (*Journal, error) {
	options := &opt.Options{
		OpenFilesCacheCapacity: 16,
		BlockCacheCapacity:     4 * opt.MiB,
		WriteBuffer:            2 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
	logger := log.New("database", dir)
	db, err := leveldb.OpenFile(dir, options)
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		logger.Warn("Recovering corrupted request journal")
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened request journal")
	return &Journal{db: db, log: logger}, nil
}

// OpenMemory returns an ephemeral journal.
func OpenMemory() (*Journal, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Journal{db: db, log: log.New("database", "memory")}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Put stores a new or replaced entry. A missing ticket or submission time is
// filled in.
func (j *Journal) Put(e *Entry) error {
	if e.RequestID == nil {
		return ErrNoRequestID
	}
	j.lock.Lock()
	defer j.lock.Unlock()

	if e.Ticket == "" {
		e.Ticket = uuid.NewString()
	}
	if e.SubmittedAt == 0 {
		e.SubmittedAt = uint64(time.Now().Unix())
	}
	return j.write(e)
}

func (j *Journal) write(e *Entry) error {
	blob, err := rlp.EncodeToBytes(e)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Put(requestKey(e.RequestID), blob)
	batch.Put(ticketKey(e.Ticket), e.RequestID.Bytes())
	return j.db.Write(batch, nil)
}

// Get returns the entry of a request id.
func (j *Journal) Get(id *big.Int) (*Entry, error) {
	blob, err := j.db.Get(requestKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	e := new(Entry)
	if err := rlp.DecodeBytes(blob, e); err != nil {
		return nil, fmt.Errorf("corrupt journal entry %v: %w", id, err)
	}
	return e, nil
}

// ByTicket returns the entry a local ticket was issued for.
func (j *Journal) ByTicket(ticket string) (*Entry, error) {
	raw, err := j.db.Get(ticketKey(ticket), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: ticket %s", ErrNotFound, ticket)
	}
	if err != nil {
		return nil, err
	}
	return j.Get(new(big.Int).SetBytes(raw))
}

// Update applies fn to a stored entry and writes it back. Status may only
// move forward.
func (j *Journal) Update(id *big.Int, fn func(*Entry) error) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	e, err := j.Get(id)
	if err != nil {
		return err
	}
	prev := e.Status
	if err := fn(e); err != nil {
		return err
	}
	if e.Status < prev {
		return fmt.Errorf("%w: %v -> %v", ErrStatusRewind, prev, e.Status)
	}
	// The key is derived from the id; keep it stable.
	e.RequestID = id
	return j.write(e)
}

// Advance moves a request to status if it is not already past it.
func (j *Journal) Advance(id *big.Int, status Status) error {
	return j.Update(id, func(e *Entry) error {
		if e.Status < status {
			e.Status = status
		}
		return nil
	})
}

// List returns every entry ordered by request id.
func (j *Journal) List() ([]*Entry, error) {
	it := j.db.NewIterator(util.BytesPrefix(requestPrefix), nil)
	defer it.Release()

	var entries []*Entry
	for it.Next() {
		e := new(Entry)
		if err := rlp.DecodeBytes(it.Value(), e); err != nil {
			j.log.Warn("Skipping corrupt journal entry", "key", common.Bytes2Hex(it.Key()), "err", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, it.Error()
}
