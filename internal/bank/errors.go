package bank

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace of the bank's error codes.
const Codespace = "bank"

var (
	ErrInsufficientFunds = errorsmod.Register(Codespace, 105, "insufficient balance")
	ErrBalanceOverflow   = errorsmod.Register(Codespace, 107, "balance overflow")
)
