package rafflestats

// Metadata describes a metric.
type Metadata struct {
	Name string `json:"name"`
	Help string `json:"help"`
}

// Fully-qualified names for metrics.
var (
	MetaRaffleEntries = Metadata{
		Name: "raffle.entries.count",
		Help: "Number of accepted entries"}
	MetaRaffleRejectedEntries = Metadata{
		Name: "raffle.entries.rejected.count",
		Help: "Number of rejected entries"}
	MetaRafflePlayers = Metadata{
		Name: "raffle.players",
		Help: "Number of players in the current round"}
	MetaRafflePotGwei = Metadata{
		Name: "raffle.pot.gwei",
		Help: "Pot of the current round in gwei"}
	MetaRaffleCalculating = Metadata{
		Name: "raffle.calculating",
		Help: "1 if a winner is being calculated, 0 otherwise"}
	MetaRaffleUpkeepChecks = Metadata{
		Name: "raffle.upkeep.check.count",
		Help: "Number of upkeep evaluations"}
	MetaRaffleDrawsStarted = Metadata{
		Name: "raffle.draw.started.count",
		Help: "Number of randomness requests issued"}
	MetaRaffleDrawRequestFailures = Metadata{
		Name: "raffle.draw.failure.count",
		Help: "Number of randomness requests rejected by the provider"}
	MetaRaffleWinnersPicked = Metadata{
		Name: "raffle.winner.count",
		Help: "Number of completed draws"}
	MetaRafflePayoutFailures = Metadata{
		Name: "raffle.payout.failure.count",
		Help: "Number of failed payouts"}
	MetaRaffleUnknownCallbacks = Metadata{
		Name: "raffle.callback.unknown.count",
		Help: "Number of randomness callbacks with an unknown request id"}
	MetaRafflePersistFailures = Metadata{
		Name: "raffle.persist.failure.count",
		Help: "Number of failed writes of the round state"}
	MetaRaffleStalledDraw = Metadata{
		Name: "raffle.draw.stalled.nanos",
		Help: "Time since the outstanding randomness request was issued, 0 if not stalled"}
)
