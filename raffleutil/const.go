package raffleutil

const (
	// CACert is the file name for CA certificate
	CACert = "ca.crt"
	// NodeCert is the file name for the raffle server certificate
	NodeCert = "node.crt"
	// NodeKey is the file name for the raffle server key
	NodeKey = "node.key"
	// WeiPerEther is the number of decimal places between ether and wei
	WeiPerEther = 18
)
