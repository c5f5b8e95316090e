// Package dag provides the directed acyclic graph used to record and draw
// how an object graph was constructed.
//
// Nodes are type ids and an edge From→To means that a value of type From
// received a value of type To as a constructor argument. [DAG.AssignRows]
// layers the graph so that every dependency sits below its dependents:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "app.Service"})
//	g.AddNode(dag.Node{ID: "app.Logger"})
//	g.AddEdge(dag.Edge{From: "app.Service", To: "app.Logger"})
//	g.AssignRows()
//
// DAG instances are not safe for concurrent use.
package dag
