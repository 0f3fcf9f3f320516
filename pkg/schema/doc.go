// Package schema validates raw node data bags before they are decoded into
// typed configuration structs.
//
// Workflow documents carry node configuration as open maps. The compiler
// decodes those maps weakly, which silently tolerates structural mistakes such
// as a conditions list given as a single object or a tools bag given as a
// string. Validating the bag against a per-node-type schema first turns those
// mistakes into field-level errors the caller can act on.
//
//	if sch := schema.ForNode(node.Type); sch != nil {
//	    if err := schema.Validate(sch, node.Data); err != nil {
//	        return err
//	    }
//	}
package schema
