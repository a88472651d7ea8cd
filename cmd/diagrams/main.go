// Command diagrams generates architecture and component diagrams for the
// top2000tospotify application using go-diagrams.
package main

import (
	"log"

	"github.com/blushft/go-diagrams/diagram"
	"github.com/blushft/go-diagrams/nodes/apps"
	"github.com/blushft/go-diagrams/nodes/generic"
)

func main() {
	generateArchitectureDiagram()
	generateComponentDiagram()
}

// generateArchitectureDiagram draws the high-level data flow from the NPO
// voting-submission page through the CLI to the Spotify API.
func generateArchitectureDiagram() {
	d, err := diagram.New(
		diagram.Filename("architecture"),
		diagram.Label("top2000tospotify Architecture"),
		diagram.Direction("LR"),
	)
	if err != nil {
		log.Fatal(err)
	}

	submissionPage := apps.Network.Internet(diagram.NodeLabel("NPO Voting Submission Page"))
	npoAPI := apps.Network.Internet(diagram.NodeLabel("NPO Submission API"))
	app := generic.Compute.Rack(diagram.NodeLabel("top2000tospotify CLI"))
	spotifyAPI := apps.Network.Internet(diagram.NodeLabel("Spotify Web API"))
	playlist := generic.Storage.Storage(diagram.NodeLabel("Target Playlist"))

	d.Connect(submissionPage, app, diagram.Forward())
	d.Connect(npoAPI, app, diagram.Forward())
	d.Connect(app, spotifyAPI, diagram.Forward())
	d.Connect(spotifyAPI, playlist, diagram.Forward())

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}

// generateComponentDiagram draws the internal package structure and how the
// reconciliation path flows through it.
func generateComponentDiagram() {
	d, err := diagram.New(
		diagram.Filename("components"),
		diagram.Label("top2000tospotify Components"),
		diagram.Direction("LR"),
	)
	if err != nil {
		log.Fatal(err)
	}

	cli := generic.Compute.Rack(diagram.NodeLabel("cmd/top2000tospotify"))
	sess := generic.Compute.Rack(diagram.NodeLabel("internal/session"))
	fetcher := generic.Compute.Rack(diagram.NodeLabel("internal/npo"))
	extractor := generic.Compute.Rack(diagram.NodeLabel("internal/extract"))
	reconciler := generic.Compute.Rack(diagram.NodeLabel("internal/reconcile"))
	matcher := generic.Compute.Rack(diagram.NodeLabel("internal/match"))
	catalog := generic.Compute.Rack(diagram.NodeLabel("internal/spotify"))
	tokenStore := generic.Storage.Storage(diagram.NodeLabel("Token File"))

	d.Connect(cli, sess, diagram.Forward())
	d.Connect(sess, fetcher, diagram.Forward())
	d.Connect(fetcher, extractor, diagram.Forward())
	d.Connect(sess, reconciler, diagram.Forward())
	d.Connect(reconciler, matcher, diagram.Forward())
	d.Connect(reconciler, catalog, diagram.Forward())
	d.Connect(catalog, tokenStore, diagram.Forward())

	if err := d.Render(); err != nil {
		log.Fatal(err)
	}
}
