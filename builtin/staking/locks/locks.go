// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package locks

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var slotLocks = thor.BytesToBytes32([]byte(("operator-locks")))

// Lock holds an operator's stake on behalf of a contract until Expiry.
type Lock struct {
	Creator thor.Address
	Expiry  uint64
}

func (l Lock) IsExpired(now uint64) bool {
	return now >= l.Expiry
}

type Service struct {
	locks *solidity.Mapping[thor.Address, []Lock]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		locks: solidity.NewMapping[thor.Address, []Lock](sctx, slotLocks),
	}
}

// Locks returns the locks of an operator in creation order.
func (s *Service) Locks(operator thor.Address) ([]Lock, error) {
	locks, err := s.locks.Get(operator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get locks")
	}
	return locks, nil
}

// Get returns the lock created by creator, if any.
func (s *Service) Get(operator, creator thor.Address) (Lock, bool, error) {
	locks, err := s.Locks(operator)
	if err != nil {
		return Lock{}, false, err
	}
	for _, l := range locks {
		if l.Creator == creator {
			return l, true, nil
		}
	}
	return Lock{}, false, nil
}

// Set adds a lock, or overwrites the expiry of the creator's existing one.
func (s *Service) Set(operator, creator thor.Address, expiry uint64) error {
	locks, err := s.Locks(operator)
	if err != nil {
		return err
	}
	replaced := false
	for i := range locks {
		if locks[i].Creator == creator {
			locks[i].Expiry = expiry
			replaced = true
			break
		}
	}
	if !replaced {
		locks = append(locks, Lock{Creator: creator, Expiry: expiry})
	}
	return s.save(operator, locks)
}

// Remove drops the creator's lock and reports whether there was one.
func (s *Service) Remove(operator, creator thor.Address) (bool, error) {
	locks, err := s.Locks(operator)
	if err != nil {
		return false, err
	}
	for i := range locks {
		if locks[i].Creator == creator {
			locks = append(locks[:i], locks[i+1:]...)
			return true, s.save(operator, locks)
		}
	}
	return false, nil
}

// Clear drops all locks of an operator.
func (s *Service) Clear(operator thor.Address) {
	s.locks.Delete(operator)
}

func (s *Service) save(operator thor.Address, locks []Lock) error {
	if len(locks) == 0 {
		s.locks.Delete(operator)
		return nil
	}
	if err := s.locks.Upsert(operator, locks); err != nil {
		return errors.Wrap(err, "failed to set locks")
	}
	return nil
}
