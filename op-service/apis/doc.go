/*
Package apis provides Go interfaces for the forked-chain APIs used by the upgrade checks.

Every interface name ending with "Client" represents a client-binding:
this provides typing and methods exclusive to the client-side.
Client interfaces may use types not used for actual RPC transport.
E.g. a `*big.Int` argument instead of a `hexutil.Big`.

Interfaces in this package are composed. When consuming interfaces as implementer,
always prefer to consume the smaller fitting interface, to increase compatibility.
E.g. the contract bindings only need a ContractClient, while the upgrade runner needs a full ForkClient.
*/
package apis
