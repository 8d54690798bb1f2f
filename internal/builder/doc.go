/*
Package builder turns a declarative pass element into a canonical
model.PassNode tree.

Build validates the pass against the shader registry, gathers its uniforms
from the inline map and from Uniform declarations, and classifies every
value. Classification follows a fixed priority:

 1. numbers, booleans and homogeneous arrays of them stay Scalar;
 2. a {value, opts} wrapper is unwrapped, keeping opts when it is an object;
 3. a falsy value (nil, "", 0, false) is an explicit Blank texture;
 4. a string is an image URI;
 5. an object with a string "uri" is an image descriptor;
 6. an object with data, shape and stride is an NDArray;
 7. a node is probed for a nested pass through transparent delegates. When a
    pass is found it is built recursively and listed in Children, otherwise
    the node is external content listed in Contents;
 8. anything else fails with model.ErrInvalidUniformFormat.

Nested passes inherit width, height and preload from the enclosing pass
when they leave them unset.
*/
package builder
