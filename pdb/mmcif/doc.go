// Reading mmcif files is interesting because they are so big,
// but we do not want much information from them.
// If one looks at the format there are some features that make it
// simpler.
//  1. The first character on the line is decisive. If it is a data item
//     it has to be a "_". A loop starts with loop_
//  2. The pdb promises that they will restrict themselves to a certain
//     style. In the atom_site table, there is one atom per line.
//
// Multi-line text fields, starting with a semicolon, are joined without
// the newlines. This is wrong for free text, but right for sequences,
// which is what we read them for.
//
// Overall structure
// There is a lot of information that will never be of interest to us
// (crystallisation details, citations, ..). We jump over anything that
// is not in our list of data items or tables. The atom_site table is
// always read and turned into an atomtab.Table. We keep
//
//	type_symbol label_atom_id label_comp_id label_asym_id
//	label_entity_id auth_seq_id (or label_seq_id) Cartn_x Cartn_y Cartn_z
//
// and, if present, label_alt_id, occupancy and pdbx_PDB_model_num.
// Chains are label_asym_id, since that is what entity and assembly
// tables refer to.
//
// Notes about the mmcif format...
// A question mark, ?, means a missing value.
// A dot, ., means not appropriate or deliberately left out.
// Entities can be anything - protein, ligands, water. Each chain
// belongs to one entity and _entity_poly says which entities are polymers.
package mmcif
