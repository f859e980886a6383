package builtins

import "github.com/example/jsviz/runtime"

// PolyfillSource names the program holding Polyfills; its nodes are
// internal and never reported as steps.
const PolyfillSource = "polyfills"

// Polyfills implements the Array methods that call back into interpreted
// code. It runs once in the global scope before the user program.
const Polyfills = `
Array.prototype.forEach = function forEach(callback, thisArg) {
  if (typeof callback !== 'function') throw new TypeError(callback + ' is not a function');
  var len = this.length;
  for (var i = 0; i < len; i++) {
    if (i in this) callback.call(thisArg, this[i], i, this);
  }
};
Array.prototype.map = function map(callback, thisArg) {
  if (typeof callback !== 'function') throw new TypeError(callback + ' is not a function');
  var len = this.length;
  var out = new Array(len);
  for (var i = 0; i < len; i++) {
    if (i in this) out[i] = callback.call(thisArg, this[i], i, this);
  }
  return out;
};
Array.prototype.filter = function filter(callback, thisArg) {
  if (typeof callback !== 'function') throw new TypeError(callback + ' is not a function');
  var len = this.length;
  var out = [];
  for (var i = 0; i < len; i++) {
    if (i in this && callback.call(thisArg, this[i], i, this)) out.push(this[i]);
  }
  return out;
};
Array.prototype.some = function some(callback, thisArg) {
  if (typeof callback !== 'function') throw new TypeError(callback + ' is not a function');
  var len = this.length;
  for (var i = 0; i < len; i++) {
    if (i in this && callback.call(thisArg, this[i], i, this)) return true;
  }
  return false;
};
Array.prototype.every = function every(callback, thisArg) {
  if (typeof callback !== 'function') throw new TypeError(callback + ' is not a function');
  var len = this.length;
  for (var i = 0; i < len; i++) {
    if (i in this && !callback.call(thisArg, this[i], i, this)) return false;
  }
  return true;
};
Array.prototype.reduce = function reduce(callback) {
  if (typeof callback !== 'function') throw new TypeError(callback + ' is not a function');
  var len = this.length;
  var i = 0;
  var acc;
  if (arguments.length > 1) {
    acc = arguments[1];
  } else {
    while (i < len && !(i in this)) i++;
    if (i >= len) throw new TypeError('Reduce of empty array with no initial value');
    acc = this[i++];
  }
  for (; i < len; i++) {
    if (i in this) acc = callback(acc, this[i], i, this);
  }
  return acc;
};
Array.prototype.reduceRight = function reduceRight(callback) {
  if (typeof callback !== 'function') throw new TypeError(callback + ' is not a function');
  var i = this.length - 1;
  var acc;
  if (arguments.length > 1) {
    acc = arguments[1];
  } else {
    while (i >= 0 && !(i in this)) i--;
    if (i < 0) throw new TypeError('Reduce of empty array with no initial value');
    acc = this[i--];
  }
  for (; i >= 0; i--) {
    if (i in this) acc = callback(acc, this[i], i, this);
  }
  return acc;
};
Array.prototype.sort = function sort(compare) {
  if (compare !== undefined && typeof compare !== 'function') {
    throw new TypeError('The comparison function must be either a function or undefined');
  }
  var len = this.length;
  for (var i = 1; i < len; i++) {
    var item = this[i];
    var j = i - 1;
    while (j >= 0) {
      var a = this[j];
      var order;
      if (a === undefined) {
        order = item === undefined ? 0 : 1;
      } else if (item === undefined) {
        order = -1;
      } else if (compare) {
        order = compare(a, item);
      } else {
        order = String(a) > String(item) ? 1 : -1;
      }
      if (!(order > 0)) break;
      this[j + 1] = a;
      j--;
    }
    this[j + 1] = item;
  }
  return this;
};
`

// HidePolyfills marks the methods installed by Polyfills as
// non-enumerable.
func HidePolyfills(h *runtime.Heap) {
	proto := h.Object(h.Intrinsic(runtime.IntrinsicArrayPrototype))
	for _, k := range proto.Keys {
		if !proto.IsHidden(k) {
			proto.PutHidden(k, proto.Props[k])
		}
	}
}
