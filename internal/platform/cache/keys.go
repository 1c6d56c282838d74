package cache

const (
	PrefixTeam       = "team:"
	PrefixPlayerList = "player:list:"
	PrefixPlayer     = "player:id:"
	PrefixMatchStats = "stats:match:"
	PrefixRanking    = "ranking:league:"
	PrefixRoster     = "roster:member:"

	KeyTeamList = "team:list"
)

func TeamKey(teamID string) string { return PrefixTeam + "id:" + teamID }

func PlayerListKey(filterKey string) string { return PrefixPlayerList + filterKey }

func PlayerKey(playerID string) string { return PrefixPlayer + playerID }

func MatchStatsKey(matchID string) string { return PrefixMatchStats + matchID }

func RankingKey(leagueID string) string { return PrefixRanking + leagueID }

func RosterKey(memberID string) string { return PrefixRoster + memberID }
