package common

// Reserved system addresses used by the execution driver. These
// replace an EVM precompile address table with the fixed
// addresses this core's non-EVM actions dispatch to.
var (
	// StoreAddress is the sentinel address the Store action
	// writes transaction data under.
	StoreAddress = BytesToAddress([]byte{0xff, 0xff, 0xff, 0xff})

	// GenesisProposer is the sentinel proposer recorded on the height-1
	// header, which carries no real proof.
	GenesisProposer = Address{}
)
