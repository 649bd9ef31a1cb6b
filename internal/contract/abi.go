package contract

// Artifact names as they appear in the per-network artifact store.
const (
	TokenContract          = "OceanToken"
	DispenserContract      = "Dispenser"
	DirectPurchaseContract = "DirectPurchase"
	ProvenanceContract     = "Provenance"
	DIDRegistryContract    = "DIDRegistry"
)

// Interfaces of the contracts the wrappers drive. Deployed artifacts may carry
// larger ABIs; these are the members the wrappers rely on.
const (
	TokenABI = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

	DispenserABI = `[
{"type":"function","name":"requestTokens","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"RequestFrequencyExceeded","anonymous":false,"inputs":[{"name":"requester","type":"address","indexed":true},{"name":"minPeriod","type":"uint256","indexed":false}]},
{"type":"event","name":"RequestLimitExceeded","anonymous":false,"inputs":[{"name":"requester","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"maxAmount","type":"uint256","indexed":false}]}
]`

	DirectPurchaseABI = `[
{"type":"function","name":"sendTokenAndLog","stateMutability":"nonpayable","inputs":[{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_reference1","type":"bytes32"},{"name":"_reference2","type":"bytes32"}],"outputs":[]},
{"type":"event","name":"TokenSent","anonymous":false,"inputs":[{"name":"_from","type":"address","indexed":true},{"name":"_to","type":"address","indexed":true},{"name":"_amount","type":"uint256","indexed":false},{"name":"_reference1","type":"bytes32","indexed":false},{"name":"_reference2","type":"bytes32","indexed":false}]}
]`

	ProvenanceABI = `[
{"type":"function","name":"registerProvenance","stateMutability":"nonpayable","inputs":[{"name":"_assetId","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"event","name":"NewProvenance","anonymous":false,"inputs":[{"name":"_assetId","type":"bytes32","indexed":true},{"name":"_owner","type":"address","indexed":true},{"name":"_timestamp","type":"uint256","indexed":false}]}
]`

	DIDRegistryABI = `[
{"type":"function","name":"register","stateMutability":"nonpayable","inputs":[{"name":"_did","type":"bytes32"},{"name":"_value","type":"string"}],"outputs":[]},
{"type":"function","name":"get","stateMutability":"view","inputs":[{"name":"_did","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]},
{"type":"event","name":"DIDRegistered","anonymous":false,"inputs":[{"name":"_did","type":"bytes32","indexed":true},{"name":"_owner","type":"address","indexed":true},{"name":"_value","type":"string","indexed":false}]}
]`
)
