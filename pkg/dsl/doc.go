/*
Package dsl provides a fluent builder for constructing dialogue documents in Go.

It is an alternative to authoring JSON, YAML or HCL files, handy for tests,
generated content and IDE-assisted authoring. Nodes are referenced by ID and
edges are resolved when Build is called, so nodes may be declared in any order.

Example usage:

	b := dsl.New("shop").Name("Shopkeeper")
	b.Var("gold", domain.KindInt, 5)

	b.Root().Go("greet")

	b.Speech("greet", "You carry {gold} gold.").
		Speaker("Merchant").
		Go("menu")

	b.Options("menu").
		Option("Buy the sword", "buy", dsl.Int("gold", domain.GreaterOrEqual, 10)).
		Option("Leave", "bye")

	b.Speech("buy", "A fine choice.").Do(dsl.IntOp("gold", domain.OpSubtract, 10))
	b.Speech("bye", "Farewell.")

	doc, err := b.Build()
*/
package dsl
