/*
 * doc.go, part of simspace.
 *
 * Copyright 2025 Raul Mera <rmeraa{at}academicos(dot)uta(dot)cl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*
Package chem is the main package of simspace. It provides the atom, topology and molecule
structures used by the rest of the library, facilities for reading and writing PDB files
(plain or compressed), distance-based bond assignment, superposition and hydrogen mass
repartitioning.

	**Packages**

	v3: Nx3 coordinate matrices on top of gonum.

	chemgraph: molecular graphs, rings and connectivity.

	ff: CHARMM-style energy terms, parameter sets and 1-4 scaling.

	charmm: PSF and CHARMM parameter files, as NAMD reads them.

	protocol: minimisation, equilibration and custom protocol descriptors, and HCL protocol files.

	namd: input generation, launching and result loading for the NAMD engine.

	mdplot: plots of NAMD energy records.

	align: atom mapping, RMSD alignment, dual-topology merging and mass repartitioning for
	merged molecules.

	cmd/namdrun: a command line driver for the namd package.

Most functions that get an index out of range panic, as that is a programming error. Everything
else returns an error, which in all packages implements the Error interface in this package.
*/
package chem
