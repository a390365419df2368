// 18 Oct 2026

/*
Afprep prepares inputs for an AlphaFold3 style structure prediction
model and runs it.

Usage:

	afprep command [flags]

The commands are:

	tojson   --input file|dir --out_dir dir [--altloc first|all|A] [--assembly_id id]
		Read mmcif files, clean them (hydrogens, water, unknown residues,
		crystallization aids) and write one job file for each.
	msa      --input job.json --out_dir dir --msa_db dir
		Search alignments for the proteins of a job file and write
		<job>-add-msa.json next to it.
	predict  --input job.json|dir [--out_dir dir] [--use_msa_server]
		Run the model on every job file. Files whose proteins lack
		alignments are skipped and reported.
	batch    --catalog cat.json --ligand file|dir [--tmp_root dir]
		Make one job for every ligand (sdf record, mol file or smi line)
		with all the proteins of the catalog, then run them.

The flags every command takes are:

	--log where
		"" to throw logging away, stdout, stderr or a file name.
	--config file
		Settings for the model runner (checkpoint_path, n_cycle,
		n_sample, n_step, use_deepspeed_evo_attention, dump_dir, exec,
		seeds). Environment variables AFPREP_<KEY> override the file,
		command line flags override both. use_deepspeed_evo_attention
		is also read from the environment variable of that name.

The catalog is a JSON object keyed by protein sequence:

	{"MKV...": {"precomputed_msa_dir": "/msa/1", "pairing_db": "uniref100", "count": 1}}
*/
package main
