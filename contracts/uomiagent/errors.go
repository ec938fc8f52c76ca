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

package uomiagent

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrRemoteCallFailed matches every error returned by a contract call or
	// transaction, whatever the underlying cause.
	ErrRemoteCallFailed = errors.New("remote call failed")

	// ErrTransactionReverted is the cause when a transaction was mined with a
	// failed status.
	ErrTransactionReverted = errors.New("transaction reverted")
)

// RemoteCallError carries the cause of a failed contract interaction. Reason
// holds the decoded revert reason, if the node returned any.
type RemoteCallError struct {
	Method string
	Reason string
	Err    error
}

func (e *RemoteCallError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s failed: %s: %v", e.Method, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Method, e.Err)
}

// Unwrap exposes both ErrRemoteCallFailed and the underlying cause.
func (e *RemoteCallError) Unwrap() []error {
	return []error{ErrRemoteCallFailed, e.Err}
}

// WrapError classifies err as a failure of the named contract method. Errors
// that are already classified are returned unchanged.
func WrapError(method string, err error) error {
	if err == nil {
		return nil
	}
	var rce *RemoteCallError
	if errors.As(err, &rce) {
		return err
	}
	return &RemoteCallError{Method: method, Reason: revertReason(err), Err: err}
}

// IsRevert reports whether err was caused by the named custom contract error,
// e.g. "NotEnoughPayment".
func IsRevert(err error, name string) bool {
	var rce *RemoteCallError
	if !errors.As(err, &rce) {
		return false
	}
	return rce.Reason == name || strings.HasPrefix(rce.Reason, name+"(")
}

func revertReason(err error) string {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return ""
	}
	s, ok := de.ErrorData().(string)
	if !ok {
		return ""
	}
	data, derr := hexutil.Decode(s)
	if derr != nil {
		return ""
	}
	return DecodeRevert(data)
}

// DecodeRevert renders revert data as either the Error(string) message, the
// Panic code or the contract's custom error with its arguments.
func DecodeRevert(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason
	}
	for name, e := range ABI.Errors {
		if !bytes.Equal(e.ID[:4], data[:4]) {
			continue
		}
		args, err := e.Inputs.Unpack(data[4:])
		if err != nil || len(args) == 0 {
			return name
		}
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = e.Inputs[i].Name + "=" + formatArg(arg)
		}
		return name + "(" + strings.Join(parts, ", ") + ")"
	}
	return ""
}

func formatArg(v interface{}) string {
	switch v := v.(type) {
	case [32]byte:
		return hexutil.Encode(v[:])
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
