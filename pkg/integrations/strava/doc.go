// Package strava reads club activities and members from the Strava API.
//
// Access uses the OAuth refresh-token grant: [Client.Token] exchanges the
// configured refresh token for a short-lived bearer token once per client.
// Club endpoints are paged; [Source] drains both collections concurrently and
// returns them as one [source.Snapshot] for the report date.
//
// Club endpoints expose athlete names but no athlete ids, so activities and
// members are matched on the normalized "first last" name.
//
// [source.Snapshot]: github.com/matzehuels/clubreport/pkg/source.Snapshot
package strava
