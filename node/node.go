// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node runs ledger operations one at a time and persists their outcome.
package node

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.WithContext("pkg", "node")

const metaBucket = kv.Bucket("m")

var (
	seqKey  = []byte("seq")
	headKey = []byte("head")
)

// Node is the single writer of the ledger.
type Node struct {
	lock   sync.RWMutex
	db     kv.Store
	stater *state.Stater
	logDB  *logdb.LogDB
	clock  thor.Clock
	dep    builtin.Deployment

	seq  uint64
	head thor.Bytes32
}

// New opens the node over db and logDB, resuming from the persisted head.
func New(db kv.Store, logDB *logdb.LogDB, clock thor.Clock, dep builtin.Deployment) (*Node, error) {
	n := &Node{
		db:     db,
		stater: state.NewStater(db),
		logDB:  logDB,
		clock:  clock,
		dep:    dep,
	}

	meta := metaBucket.NewGetter(db)
	if val, err := meta.Get(seqKey); err == nil {
		n.seq = binary.BigEndian.Uint64(val)
	} else if !db.IsNotFound(err) {
		return nil, errors.Wrap(err, "load seq")
	}
	if val, err := meta.Get(headKey); err == nil {
		n.head = thor.BytesToBytes32(val)
	} else if !db.IsNotFound(err) {
		return nil, errors.Wrap(err, "load head")
	}

	journaled, err := logDB.NewestSeq()
	if err != nil {
		return nil, err
	}
	if journaled > n.seq {
		return nil, errors.Errorf("log db is ahead of state: %d > %d", journaled, n.seq)
	}
	return n, nil
}

// Seq returns the sequence number of the last committed operation.
func (n *Node) Seq() uint64 {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.seq
}

// Head returns the digest of the committed state.
func (n *Node) Head() thor.Bytes32 {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.head
}

func (n *Node) LogDB() *logdb.LogDB {
	return n.logDB
}

func (n *Node) Clock() thor.Clock {
	return n.clock
}

func (n *Node) contracts() *builtin.Contracts {
	return builtin.New(n.stater.NewState(), n.clock, n.dep)
}

// Genesis initializes the contracts unless that was done already.
func (n *Node) Genesis(g *builtin.Genesis) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	c := n.contracts()
	ok, err := c.IsInitialized()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	receipt, err := runtime.New(c, n.clock).Exec(&runtime.Operation{
		Contract: "builtin",
		Name:     "genesis",
		Caller:   g.Roles.Governance,
		Run:      func(c *builtin.Contracts) error { return c.Initialize(g) },
	})
	if err != nil {
		return err
	}
	if receipt.Reverted {
		return errors.Errorf("genesis reverted: %v", receipt.Reason)
	}
	if err := n.commit(c.State, receipt); err != nil {
		return err
	}
	logger.Info("genesis committed", "head", n.head)
	return nil
}

// Exec runs op atomically and commits its effects. Reverted operations
// change nothing and are not journaled.
func (n *Node) Exec(op *runtime.Operation) (*runtime.Receipt, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	c := n.contracts()
	receipt, err := runtime.New(c, n.clock).Exec(op)
	if err != nil {
		metricOperationCount().AddWithLabel(1, map[string]string{"status": "failed"})
		return nil, err
	}
	if receipt.Reverted {
		metricOperationCount().AddWithLabel(1, map[string]string{"status": "reverted"})
		return receipt, nil
	}
	if err := n.commit(c.State, receipt); err != nil {
		metricOperationCount().AddWithLabel(1, map[string]string{"status": "failed"})
		return nil, err
	}
	metricOperationCount().AddWithLabel(1, map[string]string{"status": "committed"})
	n.updateGauges(c)
	return receipt, nil
}

// commit writes the staged state and then journals the events.
func (n *Node) commit(st *state.State, receipt *runtime.Receipt) error {
	stage := st.Stage()
	seq := n.seq + 1
	head := stage.Hash(n.head)

	bulk := n.db.Bulk()
	if err := stage.Commit(bulk); err != nil {
		return err
	}
	var seqVal [8]byte
	binary.BigEndian.PutUint64(seqVal[:], seq)
	meta := metaBucket.NewPutter(bulk)
	if err := meta.Put(seqKey, seqVal[:]); err != nil {
		return err
	}
	if err := meta.Put(headKey, head.Bytes()); err != nil {
		return err
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "write state")
	}
	n.seq, n.head = seq, head
	receipt.Seq = seq

	if err := n.logDB.Prepare(seq, receipt.Time, receipt.Caller).Insert(stage.Events()).Commit(); err != nil {
		logger.Error("failed to journal events", "seq", seq, "err", err)
		return errors.Wrap(err, "journal events")
	}
	logger.Debug("operation committed", "seq", seq, "contract", receipt.Contract, "op", receipt.Name, "keys", stage.Len())
	if changed, hit, miss := n.stater.CacheStats(); changed {
		logger.Debug("state cache stats", "hit", hit, "miss", miss)
	}
	return nil
}

// Query runs fn against the committed state. Changes fn makes are discarded.
func (n *Node) Query(fn func(c *builtin.Contracts) error) error {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return fn(n.contracts())
}

func (n *Node) updateGauges(c *builtin.Contracts) {
	for name, ledger := range map[string]interface{ TotalStaked() (*big.Int, error) }{
		"staking":   c.Staking,
		"stakingv2": c.StakingV2,
	} {
		if total, err := ledger.TotalStaked(); err == nil {
			metricStakedGauge().SetWithLabel(toUnits(total), map[string]string{"ledger": name})
		}
	}
	for name, esc := range map[string]interface{ TotalHeld() (*big.Int, error) }{
		"escrow":   c.Escrow,
		"escrowv2": c.EscrowV2,
	} {
		if total, err := esc.TotalHeld(); err == nil {
			metricEscrowedGauge().SetWithLabel(toUnits(total), map[string]string{"escrow": name})
		}
	}
}

func toUnits(v *big.Int) int64 {
	return new(big.Int).Div(v, thor.Unit).Int64()
}
