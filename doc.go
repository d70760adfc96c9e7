/*
Package parley is a branching dialogue engine for games and interactive fiction.

A dialogue is a document: a graph of Root, Speech, Option and Branch nodes
wired by connections, plus a typed blackboard of variables. Conditions read
the blackboard to pick branches and hide options; actions write it when a
node is entered. The runtime blackboard of each document survives between
conversations through a pluggable store (file, Redis, SQLite, Postgres).

# Concept

The engine never blocks on the player. Start and Resume run the graph until
it reaches something to show (a speech line or a set of options) and return
a Step describing it. The host presents the step however it likes and calls
Resume with the player's input. This keeps the engine embeddable in a game
loop, a CLI, an HTTP server or an MCP tool.

# Usage

	eng, err := parley.New("./dialogues")
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	ctx := context.Background()
	step, err := eng.Play(ctx, "shopkeeper")
	for err == nil && !step.IsEnded() {
		switch step.Status {
		case domain.AwaitingSpeech:
			node, _ := step.Speech()
			fmt.Println(eng.Render(node.Text))
			step, err = eng.Resume(ctx, domain.Advance())
		case domain.AwaitingChoice:
			// Show step.Options and resume with the absolute index picked.
			step, err = eng.Resume(ctx, domain.Choose(step.Options[0].Index))
		}
	}

For an interactive terminal loop with timers, see package runner.
*/
package parley
