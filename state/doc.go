// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the storage of builtin ledger contracts.
// It follows the flow as below:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ playback(staging) ] -> [ kv bulk ]
//	         |
//	   [ LRU cache ]
//	         |
//	  [ kv store ]
//
// Every value is addressed by the owning contract address and a 32 bytes key.
// Events emitted through the state share the journal, so reverting to a
// checkpoint drops both storage writes and events made after it.
package state
