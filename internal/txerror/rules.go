package txerror

// DefaultRules returns the ordered rule table used by the package-level
// classifier. Order is precedence: the first rule whose pattern matches wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind:        KindUserCancelled,
			Pattern:     `user rejected|rejected the request|user denied|cancel+ed by (the )?user|request cancel+ed`,
			Title:       "Transaction Cancelled",
			Description: "You cancelled the transaction in your wallet.",
			Severity:    SeverityInfo,
		},
		{
			Kind:        KindDuplicate,
			Pattern:     `already been processed|already processed|duplicate (transaction|signature|submission)`,
			Title:       "Already Processed",
			Description: "This transaction was already confirmed on the ledger.",
			Severity:    SeverityInfo,
		},
		{
			Kind:        KindInsufficientFunds,
			Pattern:     `insufficient (funds|lamports|balance)|no record of a prior credit`,
			Title:       "Insufficient Funds",
			Description: "The paying account does not have enough balance to cover this transaction and its fees.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindStaleReference,
			Pattern:     `blockhash not found|block ?height exceeded|blockhash (has )?expired|transaction (has )?expired`,
			Title:       "Transaction Expired",
			Description: "The transaction referenced a block that is no longer recent.",
			Severity:    SeverityWarning,
		},
		{
			Kind:        KindTimeout,
			Pattern:     `timed? ?out|deadline exceeded`,
			Title:       "Request Timed Out",
			Description: "The ledger did not respond in time. The transaction may still confirm; check before resubmitting.",
			Severity:    SeverityWarning,
		},
		{
			Kind:        KindNetwork,
			Pattern:     `network (error|request failed)|failed to fetch|fetch failed|connection (refused|reset)|econnrefused|no such host|service unavailable|bad gateway`,
			Title:       "Network Error",
			Description: "Could not reach the ledger RPC endpoint.",
			Severity:    SeverityWarning,
		},
		{
			Kind:        KindAccountMissing,
			Pattern:     `account ?not ?found|account does not exist|accountnotinitialized|could not find account`,
			Title:       "Account Not Found",
			Description: "A required account does not exist on the ledger yet.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindAccountExists,
			Pattern:     `already in use|already exists|accountalreadyinitialized|already registered`,
			Title:       "Already Exists",
			Description: "A record with these identifiers already exists.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindUnauthorized,
			Pattern:     `unauthori[sz]ed|not authori[sz]ed|constrainthasone|constraintsigner|missing required signature|permission denied`,
			Title:       "Unauthorized",
			Description: "The signing wallet is not permitted to perform this action.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindInactive,
			Pattern:     `inactive|not ?active|blacklist|deactivated`,
			Title:       "Account Inactive",
			Description: "The acting organisation or worker is inactive or blacklisted.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindPaused,
			Pattern:     `platform ?paused|program is paused|\bpaused\b`,
			Title:       "Platform Paused",
			Description: "The platform is temporarily paused by an administrator.",
			Severity:    SeverityWarning,
		},
		{
			Kind:        KindAmountOutOfRange,
			Pattern:     `below (the )?minimum|amount ?too ?(low|small)|belowminimum`,
			Title:       "Amount Too Low",
			Description: "The amount is below the platform minimum.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindAmountOutOfRange,
			Pattern:     `above (the )?maximum|exceeds (the )?maximum amount|amount ?too ?(high|large)|abovemaximum`,
			Title:       "Amount Too High",
			Description: "The amount exceeds the platform maximum.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindBatchTooLarge,
			Pattern:     `batch ?(size )?(too large|exceeded)|batchtoolarge|too many (beneficiaries|recipients|items)`,
			Title:       "Batch Too Large",
			Description: "Too many items were included in one transaction. Split the batch and try again.",
			Severity:    SeverityError,
		},
		{
			Kind:        KindSimulationFailed,
			Pattern:     `simulation failed|simulationfailed`,
			Title:       "Simulation Failed",
			Description: "The transaction failed during pre-flight simulation.",
			Severity:    SeverityError,
		},
	}
}
